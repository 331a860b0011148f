package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
)

// RequestOption adjusts a request built by NewRequest.
type RequestOption func(*http.Request) *http.Request

// NewRequest builds a request for calling a handler directly, without a router.
//
// Example:
//
//	req := testutil.NewRequest(http.MethodPost, "/api/holding/"+holding.ID+"/rights",
//	    testutil.WithURLParam("uuid", holding.ID),
//	    testutil.WithQuery("force", "true"),
//	)
func NewRequest(method, target string, opts ...RequestOption) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	for _, opt := range opts {
		req = opt(req)
	}
	return req
}

// WithURLParam sets a chi path parameter, as the router would after matching.
func WithURLParam(key, value string) RequestOption {
	return func(req *http.Request) *http.Request {
		rctx := chi.RouteContext(req.Context())
		if rctx == nil {
			rctx = chi.NewRouteContext()
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		}
		rctx.URLParams.Add(key, value)
		return req
	}
}

// WithQuery adds a query string parameter.
func WithQuery(key, value string) RequestOption {
	return func(req *http.Request) *http.Request {
		q := req.URL.Query()
		q.Add(key, value)
		req.URL.RawQuery = q.Encode()
		return req
	}
}

// WithJSON sets body as the JSON request body.
func WithJSON(body string) RequestOption {
	return func(req *http.Request) *http.Request {
		req.Body = io.NopCloser(strings.NewReader(body))
		req.ContentLength = int64(len(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}
}

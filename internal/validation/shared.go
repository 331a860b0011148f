package validation

import (
	"slices"
	"strings"
)

// Error reports invalid request fields keyed by their JSON name.
type Error struct {
	Fields map[string]string
}

// Error lists the fields in name order.
func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	slices.Sort(names)

	msgs := make([]string, len(names))
	for i, name := range names {
		msgs[i] = name + ": " + e.Fields[name]
	}
	return strings.Join(msgs, "; ")
}

// fieldErrors collects messages while a request is checked.
type fieldErrors map[string]string

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Fields: f}
}

package request

// UpdateProviderTokenRequest sets or clears (empty token) a provider API token.
type UpdateProviderTokenRequest struct {
	Token string `json:"token"`
}

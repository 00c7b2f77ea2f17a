package handlers

// ErrorResponse is the JSON error payload returned by handlers.
type ErrorResponse struct {
	Message string `json:"message"`
}

package types

// MessageRequest is the body of a user chat turn. The client supplies
// the message id so retries stay idempotent at the storage layer.
type MessageRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

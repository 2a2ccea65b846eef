package schema

import "llmock/internal/models"

// Model is the OpenAI model object.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelList wraps the model catalogue in OpenAI's list envelope.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// ModelFromNormalized converts a configured model to its wire shape.
func ModelFromNormalized(m models.Model) Model {
	return Model{
		ID:      m.ID,
		Object:  "model",
		Created: m.Created,
		OwnedBy: m.OwnedBy,
	}
}

// ModelListFromNormalized converts the configured catalogue to a list body.
func ModelListFromNormalized(catalogue []models.Model) ModelList {
	data := make([]Model, 0, len(catalogue))
	for _, m := range catalogue {
		data = append(data, ModelFromNormalized(m))
	}
	return ModelList{Object: "list", Data: data}
}

// ErrorShape is the error payload body used across all endpoints.
type ErrorShape struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ErrorBody is the envelope wrapping ErrorShape on the wire.
type ErrorBody struct {
	Error ErrorShape `json:"error"`
}

// Error types understood by OpenAI clients, with their HTTP statuses.
const (
	ErrTypeInvalidRequest = "invalid_request_error" // 400
	ErrTypeAuthentication = "authentication_error"  // 401
	ErrTypeNotFound       = "not_found_error"       // 404
	ErrTypeServer         = "server_error"          // 500
)

package engine

import (
	"errors"
	"fmt"
	"net/http"

	"llmock/internal/schema"
)

// ErrUnknownModel indicates the requested model is not in the configured set.
var ErrUnknownModel = errors.New("unknown model")

// APIError is an error that maps directly onto the OpenAI error body and an
// HTTP status. All failures the engine can surface are APIErrors; anything
// else escaping a handler is a server bug and rendered as a generic 500.
type APIError struct {
	Status  int
	Message string
	Type    string
	Param   string
	Code    string
	err     error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.err
}

// Shape returns the wire form of the error.
func (e *APIError) Shape() schema.ErrorShape {
	return schema.ErrorShape{
		Message: e.Message,
		Type:    e.Type,
		Param:   e.Param,
		Code:    e.Code,
	}
}

// unknownModelError reports a model outside the configured set. Detected
// before the strategy runs, so no partial stream can ever start for it.
func unknownModelError(model string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("The model '%s' does not exist", model),
		Type:    schema.ErrTypeInvalidRequest,
		Param:   "model",
		Code:    "model_not_found",
		err:     ErrUnknownModel,
	}
}

// generationError wraps a strategy failure as a server error.
func generationError(err error) *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Message: "The response strategy failed to generate content",
		Type:    schema.ErrTypeServer,
		err:     err,
	}
}

package apiclient

import (
	"encoding/json"

	apperrors "github.com/student-ai-platform/internal/errors"
)

// Envelope is the backend response wrapper
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// DecodeData unwraps env.Data into out. A body reporting success=false is an error.
func DecodeData(env *Envelope, out interface{}) error {
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		if msg == "" {
			msg = "request was not successful"
		}
		return apperrors.NewInternalError(msg, nil)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperrors.NewInternalError("invalid response data", err)
	}
	return nil
}

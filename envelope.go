package fieldmap

import (
	"context"
	"encoding/json"
	"errors"
)

// Envelope is the success/failure variant a ToolResult is rendered into for an external caller.
// On success Result holds the tool payload; on failure Error holds a non-empty message.
type Envelope struct {
	Success   bool            `json:"success"`
	CallID    string          `json:"call_id,omitempty"`
	Tool      string          `json:"tool,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Retryable bool            `json:"retryable,omitempty"`
}

// NewEnvelope renders res. Only client errors and registry failures keep their text;
// anything else is reported with the generic SystemError message.
func NewEnvelope(res ToolResult) Envelope {
	env := Envelope{CallID: res.CallID, Tool: res.ToolName}
	if res.Error == nil {
		env.Success = true
		env.Result = json.RawMessage(res.Result)
		if len(env.Result) == 0 {
			env.Result = json.RawMessage("null")
		}
		return env
	}
	env.Error = publicMessage(res.Error)
	var ce *ClientError
	if errors.As(res.Error, &ce) {
		env.Retryable = ce.Retryable
	}
	return env
}

func publicMessage(err error) string {
	switch {
	case IsClientError(err), IsSystemError(err):
	case errors.Is(err, ErrToolNotFound), errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrTimeout), errors.Is(err, ErrShutdown), errors.Is(err, context.Canceled):
	default:
		return (&SystemError{Err: err}).Error()
	}
	return err.Error()
}

package server

import (
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/contractgrid/internal/canvas"
	"github.com/specialistvlad/contractgrid/internal/emit"
	"github.com/specialistvlad/contractgrid/internal/pipeline"
)

// Socket event names.
const (
	EventCompile      = "compile"
	EventCompiled     = "compiled"
	EventCompileError = "compile_error"
)

// CompileRequest asks for one canvas snapshot to be compiled.
type CompileRequest struct {
	Session string        `json:"session,omitempty"`
	Version uint64        `json:"version,omitempty"`
	Canvas  *canvas.State `json:"canvas"`
	Header  emit.Header   `json:"header,omitempty"`
}

// CompileResponse answers a CompileRequest.
type CompileResponse struct {
	Session string `json:"session,omitempty"`
	Version uint64 `json:"version,omitempty"`
	// Superseded is set when a newer version of the session was submitted
	// before this one finished; Result is then nil.
	Superseded bool             `json:"superseded,omitempty"`
	Result     *pipeline.Result `json:"result,omitempty"`
}

// ErrorResponse reports a request that could not be compiled at all.
type ErrorResponse struct {
	Session string `json:"session,omitempty"`
	Version uint64 `json:"version,omitempty"`
	Error   string `json:"error"`
}

// Decode converts a socket payload, which arrives as generic JSON data,
// into v.
func Decode(payload any, v any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to re-encode payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// Encode converts v into plain JSON data for a socket emit.
func Encode(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CompileRequest) validate() error {
	if r.Canvas == nil {
		return fmt.Errorf("request has no canvas")
	}
	return nil
}

package serve

import (
	"encoding/json"

	"github.com/praetorian-inc/errhunter/pkg/types"
)

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"` // "symbolicate" | "symbolicate_batch" | "close"
	Payload json.RawMessage `json:"payload"`
}

// SymbolicatePayload is the payload for "symbolicate" requests. It mirrors
// a JavaScript error: its message and its stack text.
type SymbolicatePayload struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
	// Depth > 0 returns up to Depth frames instead of only the innermost.
	Depth int `json:"depth,omitempty"`
}

// Exception converts the payload for the hunter.
func (p SymbolicatePayload) Exception() *types.Exception {
	return &types.Exception{Message: p.Message, Stack: p.Stack}
}

// SymbolicateBatchPayload is the payload for "symbolicate_batch" requests
type SymbolicateBatchPayload struct {
	Items []SymbolicatePayload `json:"items"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | "symbolicate" | "symbolicate_batch" | "error"
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version string `json:"version"`
}

package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/praetorian-inc/errhunter/pkg/hunter"
	"github.com/praetorian-inc/errhunter/pkg/types"
)

// Version is the server protocol version
const Version = "1.0.0"

// Symbolicator resolves exceptions to annotated source.
type Symbolicator interface {
	Symbolicate(ctx context.Context, exc *types.Exception) (*types.Code, error)
	SymbolicateFrames(ctx context.Context, exc *types.Exception, depth int) ([]*types.Code, error)
}

// Server answers symbolication requests over NDJSON
type Server struct {
	hunter  Symbolicator
	encoder *json.Encoder
	decoder *json.Decoder
}

// NewServer creates a new streaming server
func NewServer(h Symbolicator, in io.Reader, out io.Writer) *Server {
	return &Server{
		hunter:  h,
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
	}
}

// Run starts the server main loop
func (s *Server) Run(ctx context.Context) error {
	// Send ready signal
	s.sendReady()

	// Use buffered channels for incoming requests
	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until stdin closes or context cancels
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(ctx, req) {
						return nil
					}
				default:
					// No more pending requests
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(ctx, req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(ctx context.Context, req Request) bool {
	switch req.Type {
	case "symbolicate":
		s.handleSymbolicate(ctx, req.Payload)
	case "symbolicate_batch":
		s.handleSymbolicateBatch(ctx, req.Payload)
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	data, _ := json.Marshal(ReadyData{Version: Version})
	s.encoder.Encode(Response{
		Success: true,
		Type:    "ready",
		Data:    data,
	})
}

func (s *Server) handleSymbolicate(ctx context.Context, payload json.RawMessage) {
	var p SymbolicatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("symbolicate", err.Error())
		return
	}

	var result interface{}
	var err error
	if p.Depth > 0 {
		result, err = s.hunter.SymbolicateFrames(ctx, p.Exception(), p.Depth)
	} else {
		result, err = s.hunter.Symbolicate(ctx, p.Exception())
	}
	if errors.Is(err, hunter.ErrNoProjectFrame) {
		result, err = nil, nil
	}
	if err != nil {
		s.sendError("symbolicate", err.Error())
		return
	}

	data, _ := json.Marshal(result)
	s.encoder.Encode(Response{
		Success: true,
		Type:    "symbolicate",
		Data:    data,
	})
}

// handleSymbolicateBatch answers with one entry per item, null where the
// item could not be resolved.
func (s *Server) handleSymbolicateBatch(ctx context.Context, payload json.RawMessage) {
	var p SymbolicateBatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("symbolicate_batch", err.Error())
		return
	}

	codes := make([]*types.Code, len(p.Items))
	for i, item := range p.Items {
		code, err := s.hunter.Symbolicate(ctx, item.Exception())
		if err != nil {
			continue
		}
		codes[i] = code
	}

	data, _ := json.Marshal(codes)
	s.encoder.Encode(Response{
		Success: true,
		Type:    "symbolicate_batch",
		Data:    data,
	})
}

func (s *Server) sendError(reqType, msg string) {
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	})
}

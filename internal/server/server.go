// Package server exposes the review router as an MCP tool over stdio.
package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/richhaase/interpeer/internal/domain"
)

// maxLineSize bounds a single inbound message.
const maxLineSize = 16 * 1024 * 1024

// Reviewer routes review requests. *router.Router satisfies it.
type Reviewer interface {
	Route(ctx context.Context, req domain.ReviewRequest) (*domain.ReviewResult, error)
	AgentIDs() ([]string, error)
}

// Server speaks newline-delimited JSON-RPC 2.0 and serves the review tool.
type Server struct {
	reviewer Reviewer
	logger   *zap.Logger
	info     ServerInfo
	wg       sync.WaitGroup
}

// New creates a server. A nil logger discards logs.
func New(reviewer Reviewer, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if version == "" {
		version = "dev"
	}
	return &Server{
		reviewer: reviewer,
		logger:   logger,
		info:     ServerInfo{Name: "interpeer", Version: version},
	}
}

// Serve reads messages from in and writes responses to out until in is
// exhausted or ctx is cancelled. In-flight tool calls are drained before it
// returns.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	w := &messageWriter{out: out}
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			buf := make([]byte, len(line))
			copy(buf, line)
			select {
			case lines <- buf:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	defer s.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				return nil
			}
			s.handle(ctx, w, line)
		}
	}
}

func (s *Server) handle(ctx context.Context, w *messageWriter, line []byte) {
	if line[0] == '[' {
		s.send(w, errorResponse(nil, InvalidRequest, "batch requests are not supported"))
		return
	}

	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		s.send(w, errorResponse(nil, ParseError, "parse error: "+err.Error()))
		return
	}
	if msg.Method == "" {
		// Responses from the client carry no method; nothing to answer.
		if msg.Result == nil && msg.Error == nil && !msg.IsNotification() {
			s.send(w, errorResponse(msg.ID, InvalidRequest, "missing method"))
		}
		return
	}
	if msg.JSONRPC != "2.0" {
		if !msg.IsNotification() {
			s.send(w, errorResponse(msg.ID, InvalidRequest, `jsonrpc must be "2.0"`))
		}
		return
	}

	s.logger.Debug("mcp message", zap.String("method", msg.Method))

	switch msg.Method {
	case "initialize":
		var params InitializeParams
		if len(msg.Params) > 0 {
			if err := json.Unmarshal(msg.Params, &params); err != nil {
				s.reply(w, &msg, errorResponse(msg.ID, InvalidParams, "invalid initialize params: "+err.Error()))
				return
			}
		}
		s.reply(w, &msg, response(msg.ID, s.initialize(params)))
	case "notifications/initialized", "notifications/cancelled":
	case "ping":
		s.reply(w, &msg, response(msg.ID, struct{}{}))
	case "tools/list":
		ids, err := s.reviewer.AgentIDs()
		if err != nil {
			s.reply(w, &msg, errorResponse(msg.ID, InternalError, err.Error()))
			return
		}
		s.reply(w, &msg, response(msg.ID, ToolsListResult{Tools: []ToolDefinition{reviewTool(ids)}}))
	case "tools/call":
		s.wg.Add(1)
		go func(msg Message) {
			defer s.wg.Done()
			s.reply(w, &msg, s.toolsCall(ctx, msg))
		}(msg)
	default:
		if !msg.IsNotification() {
			s.send(w, errorResponse(msg.ID, MethodNotFound, "method not found: "+msg.Method))
		}
	}
}

func (s *Server) initialize(params InitializeParams) InitializeResult {
	version := params.ProtocolVersion
	if version == "" {
		version = ProtocolVersion
	}
	return InitializeResult{
		ProtocolVersion: version,
		Capabilities: map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		ServerInfo:   s.info,
		Instructions: "Use " + ToolName + " to get an independent review from another coding agent.",
	}
}

func (s *Server) toolsCall(ctx context.Context, msg Message) (resp *Message) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool call panicked", zap.Any("panic", r))
			resp = errorResponse(msg.ID, InternalError, fmt.Sprintf("internal error: %v", r))
		}
	}()

	var params ToolCallParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return errorResponse(msg.ID, InvalidParams, "invalid tools/call params: "+err.Error())
	}
	if params.Name != ToolName {
		return errorResponse(msg.ID, InvalidParams, "unknown tool: "+params.Name)
	}

	req, err := decodeRequest(params.Arguments)
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		return response(msg.ID, toolError(err))
	}

	res, err := s.reviewer.Route(ctx, req)
	if err != nil {
		return response(msg.ID, toolError(err))
	}
	return response(msg.ID, toolResult(res))
}

// decodeRequest maps tool arguments onto a request, rejecting unknown keys
// and mistyped values as validation errors.
func decodeRequest(args map[string]any) (domain.ReviewRequest, error) {
	var req domain.ReviewRequest
	raw, err := json.Marshal(args)
	if err != nil {
		return req, &domain.ValidationError{Field: "arguments", Message: err.Error()}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return req, &domain.ValidationError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("must be a %s, got %s", jsonTypeName(typeErr.Type.String()), typeErr.Value),
			}
		}
		if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
			return req, &domain.ValidationError{Field: strings.Trim(field, `"`), Message: "is not a recognized argument"}
		}
		return req, &domain.ValidationError{Field: "arguments", Message: err.Error()}
	}
	return req, nil
}

func jsonTypeName(goType string) string {
	switch {
	case strings.HasPrefix(goType, "[]"):
		return "array"
	case strings.Contains(goType, "int"):
		return "integer"
	case goType == "string", strings.HasPrefix(goType, "domain."):
		return "string"
	default:
		return goType
	}
}

func toolResult(res *domain.ReviewResult) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: res.Text}},
		Meta: &ResultMeta{
			Agent: res.Agent,
			Model: res.Model,
			Usage: res.Usage,
			Cache: res.Cache,
		},
	}
}

func toolError(err error) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: "Error: " + err.Error()}},
		IsError: true,
	}
}

func (s *Server) reply(w *messageWriter, req *Message, resp *Message) {
	if req.IsNotification() {
		return
	}
	s.send(w, resp)
}

func (s *Server) send(w *messageWriter, msg *Message) {
	if err := w.write(msg); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}

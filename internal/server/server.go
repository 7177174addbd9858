package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/specialistvlad/contractgrid/internal/emit"
	"github.com/specialistvlad/contractgrid/internal/pipeline"
	"github.com/specialistvlad/contractgrid/internal/sessionstore"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

// maxRequestBytes bounds the size of a POST /compile body.
const maxRequestBytes = 8 << 20

// Server serves compile requests over socket.io and HTTP.
type Server struct {
	ctx      context.Context
	logger   *slog.Logger
	compiler *pipeline.Compiler
	sessions *sessionstore.Store
	io       *socket.Server
	header   emit.Header
}

// Option configures a Server.
type Option func(*Server)

// WithDefaultHeader sets the header fields used when a request leaves them
// empty.
func WithDefaultHeader(h emit.Header) Option {
	return func(s *Server) {
		s.header = h
	}
}

// New creates a Server. ctx carries the logger and bounds every compilation.
func New(ctx context.Context, compiler *pipeline.Compiler, sessions *sessionstore.Store, opts ...Option) *Server {
	s := &Server{
		ctx:      ctx,
		logger:   ctxlog.FromContext(ctx),
		compiler: compiler,
		sessions: sessions,
		io:       socket.NewServer(nil, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.io.On("connection", s.onConnection)
	return s
}

// Handler returns the HTTP handler serving socket.io, /compile and /health.
func (s *Server) Handler() http.Handler {
	opts := socket.DefaultServerOptions()
	opts.SetServeClient(false)
	opts.SetCors(&types.Cors{Origin: "*", Credentials: true})

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", s.io.ServeHandler(opts))
	mux.HandleFunc("/compile", s.handleCompile)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Close disconnects every socket client.
func (s *Server) Close() {
	s.logger.Debug("Closing socket.io server.")
	s.io.Close(nil)
}

func (s *Server) onConnection(clients ...any) {
	client, ok := clients[0].(*socket.Socket)
	if !ok {
		s.logger.Error("Unexpected connection payload.", "type", fmt.Sprintf("%T", clients[0]))
		return
	}
	logger := s.logger.With("sid", client.Id())
	logger.Info("Editor connected.")

	client.On(EventCompile, func(data ...any) {
		if len(data) == 0 {
			client.Emit(EventCompileError, map[string]any{"error": "missing compile request"})
			return
		}
		var req CompileRequest
		if err := Decode(data[0], &req); err != nil {
			logger.Warn("Rejected malformed compile request.", "error", err)
			client.Emit(EventCompileError, map[string]any{"error": err.Error()})
			return
		}

		event := EventCompiled
		var out any
		resp, err := s.compile(ctxlog.WithLogger(s.ctx, logger), &req)
		if err != nil {
			event, out = EventCompileError, ErrorResponse{Session: req.Session, Version: req.Version, Error: err.Error()}
		} else {
			out = resp
		}
		if payload, ok := encodeReply(logger, event, out); ok {
			client.Emit(event, payload)
		}
	})

	client.On("disconnect", func(reason ...any) {
		logger.Info("Editor disconnected.", "reason", fmt.Sprint(reason...))
	})
}

// encodeReply encodes v for event. On failure it logs and reports false, and
// nothing should be sent.
func encodeReply(logger *slog.Logger, event string, v any) (map[string]any, bool) {
	payload, err := Encode(v)
	if err != nil {
		logger.Error("Failed to encode reply.", "event", event, "error", err)
		return nil, false
	}
	return payload, true
}

// compile runs one request, honouring session versions.
func (s *Server) compile(ctx context.Context, req *CompileRequest) (*CompileResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	resp := &CompileResponse{Session: req.Session, Version: req.Version}

	if req.Session != "" && !s.sessions.Begin(ctx, req.Session, req.Version) {
		resp.Superseded = true
		return resp, nil
	}

	res, err := s.compiler.Compile(ctx, req.Canvas, s.headerFor(req.Header))
	if err != nil {
		ctxlog.FromContext(ctx).Error("Compilation failed.", "session", req.Session, "version", req.Version, "error", err)
		return nil, err
	}

	if req.Session != "" && !s.sessions.Complete(ctx, req.Session, req.Version, res) {
		resp.Superseded = true
		return resp, nil
	}
	resp.Result = res
	return resp, nil
}

func (s *Server) headerFor(h emit.Header) emit.Header {
	if h.ContractName == "" {
		h.ContractName = s.header.ContractName
	}
	if h.License == "" {
		h.License = s.header.License
	}
	if h.Pragma == "" {
		h.Pragma = s.header.Pragma
	}
	return h
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	var req CompileRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		s.logger.Debug("Rejected malformed compile request.", "remote_addr", r.RemoteAddr, "error", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Session: req.Session, Version: req.Version, Error: err.Error()})
		return
	}

	ctx := ctxlog.WithLogger(r.Context(), s.logger)
	resp, err := s.compile(ctx, &req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, ErrorResponse{Session: req.Session, Version: req.Version, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

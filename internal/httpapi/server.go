// Package httpapi serves archived harness runs over HTTP.
package httpapi

import (
	"encoding/json"
	"net"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/fairy-eval-harness/internal/reportstore"
	"github.com/park285/fairy-eval-harness/pkg/reportdto"
)

const runsPrefix = "/api/runs/"

type Server struct {
	store *reportstore.Store
	log   *zap.Logger
	srv   *fasthttp.Server
}

func New(store *reportstore.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{store: store, log: log}
	s.srv = &fasthttp.Server{
		Handler: s.handle,
		Name:    "evalharness",
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error { return s.srv.ListenAndServe(addr) }

// Serve runs the server on an existing listener; used by tests.
func (s *Server) Serve(ln net.Listener) error { return s.srv.Serve(ln) }

func (s *Server) Shutdown() error { return s.srv.Shutdown() }

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed", "only GET is supported")
		return
	}

	path := string(ctx.Path())
	switch {
	case path == "/healthz":
		s.writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
	case path == runsPrefix+"latest":
		s.handleLatest(ctx)
	case strings.HasPrefix(path, runsPrefix):
		s.handleRun(ctx, strings.TrimPrefix(path, runsPrefix))
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, "not_found", "unknown path")
	}
}

func (s *Server) handleLatest(ctx *fasthttp.RequestCtx) {
	binary := string(ctx.QueryArgs().Peek("binary"))
	if strings.TrimSpace(binary) == "" {
		s.writeError(ctx, fasthttp.StatusBadRequest, "missing_binary", "query parameter binary is required")
		return
	}
	id, err := s.store.LatestRunID(ctx, binary)
	if err != nil {
		s.log.Error("latest run lookup failed", zap.String("binary", binary), zap.Error(err))
		s.writeError(ctx, fasthttp.StatusInternalServerError, "store_error", "run archive unavailable")
		return
	}
	if id == "" {
		s.writeError(ctx, fasthttp.StatusNotFound, "no_runs", "no runs recorded for this binary")
		return
	}
	s.handleRun(ctx, id)
}

func (s *Server) handleRun(ctx *fasthttp.RequestCtx, id string) {
	var run reportdto.Run
	ok, err := s.store.LoadRun(ctx, id, &run)
	if err != nil {
		s.log.Error("run lookup failed", zap.String("run", id), zap.Error(err))
		s.writeError(ctx, fasthttp.StatusInternalServerError, "store_error", "run archive unavailable")
		return
	}
	if !ok {
		s.writeError(ctx, fasthttp.StatusNotFound, "run_not_found", "no such run")
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, &run)
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("encode response failed", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(body)
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, status int, code, message string) {
	s.writeJSON(ctx, status, reportdto.HarnessError{Code: code, Message: message})
}

// Package rpc exposes the stake ledger over JSON-RPC 2.0 on HTTP.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-stake/config"
	"github.com/Klingon-tech/klingnet-stake/internal/ledger"
	klog "github.com/Klingon-tech/klingnet-stake/internal/log"
	"github.com/Klingon-tech/klingnet-stake/internal/metrics"
)

// maxBodySize caps a request body at 1 MiB.
const maxBodySize = 1 << 20

const shutdownGrace = 5 * time.Second

type handlerFunc func(ctx context.Context, req *Request) (any, *Error)

// Server answers JSON-RPC calls against one ledger.
type Server struct {
	addr    string
	ledger  *ledger.Ledger
	metrics *metrics.Metrics // nil: no /metrics route, observations dropped
	logger  zerolog.Logger

	methods    map[string]handlerFunc
	requestTTL time.Duration  // zero: no per-call deadline
	allowed    []netip.Prefix // empty: every source accepted
	origins    []string       // empty: no CORS headers

	http *http.Server
	ln   net.Listener
}

// New builds a server bound to addr once Start is called. The zero
// RPCConfig accepts every source, sends no CORS headers and sets no
// per-call deadline. A non-nil m adds the /metrics route.
func New(addr string, l *ledger.Ledger, rpcCfg config.RPCConfig, m *metrics.Metrics) *Server {
	s := &Server{
		addr:       addr,
		ledger:     l,
		metrics:    m,
		logger:     klog.WithComponent("rpc"),
		requestTTL: time.Duration(rpcCfg.RequestTTL) * time.Second,
		allowed:    allowList(rpcCfg.AllowedIPs),
		origins:    rpcCfg.CORSOrigins,
	}
	s.methods = map[string]handlerFunc{
		MethodCreateAccount: s.handleCreateAccount,
		MethodDeposit:       s.handleDeposit,
		MethodUnstake:       s.handleUnstake,
		MethodClaimPoints:   s.handleClaimPoints,
		MethodGetAccount:    s.handleGetAccount,
		MethodGetPoints:     s.handleGetPoints,
		MethodGetNonce:      s.handleGetNonce,
		MethodGetInfo:       s.handleGetInfo,
	}

	mux := http.NewServeMux()
	mux.Handle("/", s.sourceFilter(http.HandlerFunc(s.serveRPC)))
	if m != nil {
		mux.Handle("/metrics", s.sourceFilter(m.Handler()))
	}
	s.http = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// allowList turns "10.0.0.0/8" and bare "127.0.0.1" style entries into
// prefixes. Entries that parse as neither are skipped; config validation
// rejects them before a node gets here.
func allowList(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			a = a.Unmap()
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}

// Start binds the listener and serves from a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("rpc listen %s: %w", s.addr, err)
	}
	s.ln = ln
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("RPC server stopped")
		}
	}()
	return nil
}

// Addr is the bound address once started, so tests can listen on :0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Stop drains in-flight calls for up to five seconds.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func (s *Server) sourceFilter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.sourceAllowed(r.RemoteAddr) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) sourceAllowed(remote string) bool {
	if len(s.allowed) == 0 {
		return true
	}
	ap, err := netip.ParseAddrPort(remote)
	if err != nil {
		return false
	}
	ip := ap.Addr().Unmap()
	return slices.ContainsFunc(s.allowed, func(p netip.Prefix) bool { return p.Contains(ip) })
}

func (s *Server) serveRPC(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r.Header.Get("Origin"))
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		reply(w, nil, nil, newError(CodeInvalidRequest, "only POST method is allowed"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			reply(w, nil, nil, newError(CodeInvalidRequest, "request body too large"))
		} else {
			reply(w, nil, nil, newError(CodeParseError, "failed to read request body"))
		}
		return
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		reply(w, nil, nil, newError(CodeParseError, "invalid JSON"))
		return
	}
	if req.JSONRPC != "2.0" {
		reply(w, req.ID, nil, newError(CodeInvalidRequest, `jsonrpc must be "2.0"`))
		return
	}

	ctx := r.Context()
	if s.requestTTL > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTTL)
		defer cancel()
	}

	label := "unknown"
	var (
		result any
		rpcErr *Error
	)
	if h, ok := s.methods[req.Method]; ok {
		label = req.Method
		result, rpcErr = h(ctx, &req)
	} else {
		rpcErr = newError(CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}

	code := 0
	if rpcErr != nil {
		code = rpcErr.Code
	}
	s.metrics.ObserveRPC(label, code)
	reply(w, req.ID, result, rpcErr)
}

func reply(w http.ResponseWriter, id, result any, rpcErr *Error) {
	w.Header().Set("Content-Type", "application/json")
	resp := Response{JSONRPC: "2.0", ID: id, Error: rpcErr}
	if rpcErr == nil {
		resp.Result = result
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		klog.RPC.Debug().Err(err).Msg("write response")
	}
}

func newError(code int, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// applyCORS echoes an allowed Origin, or "*" when the wildcard is configured.
func (s *Server) applyCORS(w http.ResponseWriter, origin string) {
	if origin == "" || len(s.origins) == 0 {
		return
	}
	allow := ""
	switch {
	case slices.Contains(s.origins, "*"):
		allow = "*"
	case slices.Contains(s.origins, origin):
		allow = origin
	default:
		return
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", allow)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

// parseParams decodes req.Params into target.
func parseParams(req *Request, target any) *Error {
	if req.Params == nil {
		return newError(CodeInvalidParams, "params required")
	}
	raw, err := json.Marshal(req.Params)
	if err != nil {
		return newError(CodeInvalidParams, "invalid params")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return newError(CodeInvalidParams, fmt.Sprintf("invalid params: %v", err))
	}
	return nil
}

// Package remote provides a JSON-RPC-over-WebSocket server exposing
// an AD5328 for bench automation, plus a few REST-style endpoints.
//
// Copyright (C) 2026  ad5328-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package remote

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"ad5328-go/pkg/ad5328"
	"ad5328-go/pkg/log"
)

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeHardwareError  = -32000
)

// DAC is the set of device operations the server exposes. The driver's
// Device satisfies it; tests may substitute their own.
type DAC interface {
	Configure(config ad5328.Config) error
	Reset(full bool) error
	PowerDown(channels [8]bool) error
	SetChannel(ch ad5328.Channel, value uint16) error
}

// StatusFunc returns the bench-side view of the chip state, typically
// a dacsim snapshot or a caller-maintained shadow. May be nil when no
// such view exists.
type StatusFunc func() any

// Config holds server configuration.
type Config struct {
	// HTTP address to listen on (e.g., ":7130")
	Addr string

	// DAC to drive
	DAC DAC

	// Status source for dac.status (optional)
	Status StatusFunc

	// Logger (optional)
	Logger *log.Logger
}

// Server exposes one DAC over WebSocket JSON-RPC.
type Server struct {
	dac    DAC
	status StatusFunc
	addr   string
	logger *log.Logger

	httpServer *http.Server
	wsUpgrader websocket.Upgrader

	running   atomic.Bool
	startTime time.Time
}

// New creates a new bench server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New("remote")
	}
	s := &Server{
		dac:       cfg.DAC,
		status:    cfg.Status,
		addr:      cfg.Addr,
		logger:    logger,
		startTime: time.Now(),
	}
	s.wsUpgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // bench tool, no origin policy
		},
	}
	return s
}

// Handler returns the HTTP handler serving all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/websocket", s.handleWebSocket)
	mux.HandleFunc("/server/info", s.handleServerInfo)
	mux.HandleFunc("/dac/status", s.handleStatus)
	return mux
}

// Start starts the server and blocks until it shuts down.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}
	s.running.Store(true)
	s.logger.Info("listening on %s", s.addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	s.running.Store(false)
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Close()
}

// rpcRequest is a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// rpcError is a JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResponse is a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	s.logger.Info("client connected: %s", conn.RemoteAddr())

	for {
		var req rpcRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("client %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
		result, rpcErr := s.dispatch(req.Method, req.Params)
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Warn("client %s: write: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

// dispatch routes one JSON-RPC call.
func (s *Server) dispatch(method string, params json.RawMessage) (any, *rpcError) {
	s.logger.Debug("rpc %s %s", method, params)

	switch method {
	case "server.info":
		return s.serverInfo(), nil
	case "dac.status":
		if s.status == nil {
			return nil, &rpcError{codeHardwareError, "no status source attached"}
		}
		return s.status(), nil
	case "dac.set_channel":
		return s.rpcSetChannel(params)
	case "dac.configure":
		return s.rpcConfigure(params)
	case "dac.reset":
		return s.rpcReset(params)
	case "dac.power_down":
		return s.rpcPowerDown(params)
	}
	return nil, &rpcError{codeMethodNotFound, fmt.Sprintf("unknown method %q", method)}
}

func (s *Server) serverInfo() map[string]any {
	return map[string]any{
		"app":    "ad5328-go",
		"uptime": time.Since(s.startTime).Seconds(),
	}
}

// driverError maps a driver failure to a JSON-RPC error.
func driverError(err error) *rpcError {
	if ad5328.IsCode(err, ad5328.ErrOutOfBounds) {
		return &rpcError{codeInvalidParams, err.Error()}
	}
	return &rpcError{codeHardwareError, err.Error()}
}

// parseChannel accepts a channel letter ("A".."H", case-insensitive)
// or an index ("0".."7").
func parseChannel(raw string) (ad5328.Channel, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if len(s) == 1 {
		if s[0] >= 'A' && s[0] <= 'H' {
			return ad5328.Channel(s[0] - 'A'), nil
		}
		if s[0] >= '0' && s[0] <= '7' {
			return ad5328.Channel(s[0] - '0'), nil
		}
	}
	return 0, fmt.Errorf("invalid channel %q", raw)
}

func (s *Server) rpcSetChannel(params json.RawMessage) (any, *rpcError) {
	var p struct {
		Channel string `json:"channel"`
		Value   uint16 `json:"value"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpcError{codeParseError, err.Error()}
	}
	ch, err := parseChannel(p.Channel)
	if err != nil {
		return nil, &rpcError{codeInvalidParams, err.Error()}
	}
	if err := s.dac.SetChannel(ch, p.Value); err != nil {
		return nil, driverError(err)
	}
	return "ok", nil
}

func (s *Server) rpcConfigure(params json.RawMessage) (any, *rpcError) {
	// All fields optional; unset fields keep the chip defaults.
	var p struct {
		GainAD *uint8 `json:"gain_ad"`
		GainEH *uint8 `json:"gain_eh"`
		BufAD  *uint8 `json:"buf_ad"`
		BufEH  *uint8 `json:"buf_eh"`
		VddAD  *uint8 `json:"vdd_ad"`
		VddEH  *uint8 `json:"vdd_eh"`
		Ldac   *uint8 `json:"ldac"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpcError{codeParseError, err.Error()}
		}
	}

	cfg := ad5328.DefaultConfig()
	set := func(dst *uint8, src *uint8, max uint8, name string) *rpcError {
		if src == nil {
			return nil
		}
		if *src > max {
			return &rpcError{codeInvalidParams, fmt.Sprintf("%s must be 0..%d", name, max)}
		}
		*dst = *src
		return nil
	}
	fields := []struct {
		dst  *uint8
		src  *uint8
		max  uint8
		name string
	}{
		{(*uint8)(&cfg.GainAD), p.GainAD, 1, "gain_ad"},
		{(*uint8)(&cfg.GainEH), p.GainEH, 1, "gain_eh"},
		{(*uint8)(&cfg.BufAD), p.BufAD, 1, "buf_ad"},
		{(*uint8)(&cfg.BufEH), p.BufEH, 1, "buf_eh"},
		{(*uint8)(&cfg.VddAD), p.VddAD, 1, "vdd_ad"},
		{(*uint8)(&cfg.VddEH), p.VddEH, 1, "vdd_eh"},
		{(*uint8)(&cfg.Ldac), p.Ldac, 2, "ldac"},
	}
	for _, f := range fields {
		if rpcErr := set(f.dst, f.src, f.max, f.name); rpcErr != nil {
			return nil, rpcErr
		}
	}

	if err := s.dac.Configure(cfg); err != nil {
		return nil, driverError(err)
	}
	return "ok", nil
}

func (s *Server) rpcReset(params json.RawMessage) (any, *rpcError) {
	var p struct {
		Full bool `json:"full"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpcError{codeParseError, err.Error()}
		}
	}
	if err := s.dac.Reset(p.Full); err != nil {
		return nil, driverError(err)
	}
	return "ok", nil
}

func (s *Server) rpcPowerDown(params json.RawMessage) (any, *rpcError) {
	var p struct {
		Channels []bool `json:"channels"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpcError{codeParseError, err.Error()}
	}
	if len(p.Channels) > 8 {
		return nil, &rpcError{codeInvalidParams, "channels accepts at most 8 flags"}
	}
	var channels [8]bool
	copy(channels[:], p.Channels)
	if err := s.dac.PowerDown(channels); err != nil {
		return nil, driverError(err)
	}
	return "ok", nil
}

func (s *Server) handleServerInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.serverInfo())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		http.Error(w, "no status source attached", http.StatusNotFound)
		return
	}
	writeJSON(w, s.status())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

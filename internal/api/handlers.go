/*
Package api
File: handlers.go
Description:
    Contains the HTTP handlers for the REST API.
    These functions decode the JSON request, call one Engine operation and
    return its result as JSON. The Engine serializes every operation itself,
    so handlers hold no locks of their own.

    Key Responsibilities:
    - Input Validation (Is the JSON valid? Is the amount sane?)
    - Mapping rejected actions to HTTP status codes
    - Save import/export against the configured save slot
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/everforgeworks/chaos-engine/internal/game"
	"github.com/everforgeworks/chaos-engine/internal/storage"
)

// maxSaveBytes bounds an imported save payload.
const maxSaveBytes = 1 << 20

// Request DTOs (Data Transfer Objects)

type ProducerRequest struct {
	ProducerID string `json:"producer_id"`
	Amount     int    `json:"amount"` // Defaults to 1
	Max        bool   `json:"max"`    // Buy as many as affordable; ignores Amount
}

type UpgradeRequest struct {
	UpgradeID string `json:"upgrade_id"`
}

type MutationRequest struct {
	MutationID string `json:"mutation_id"`
}

type TradeRequest struct {
	AssetID string `json:"asset_id"`
	Shares  int64  `json:"shares"`
}

// Options configures a Server.
type Options struct {
	AllowedOrigin string
	ClickRate     float64
	ClickBurst    int
	Logger        *slog.Logger
}

// Server binds the REST and WebSocket endpoints to one Engine.
type Server struct {
	engine   *game.Engine
	hub      *Hub
	slot     storage.Slot
	log      *slog.Logger
	clicks   *clickLimiter
	origin   string
	upgrader websocket.Upgrader
}

func NewServer(engine *game.Engine, hub *Hub, slot storage.Slot, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	s := &Server{
		engine: engine,
		hub:    hub,
		slot:   slot,
		log:    opts.Logger,
		clicks: newClickLimiter(opts.ClickRate, opts.ClickBurst),
		origin: opts.AllowedOrigin,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return s.origin == "*" || r.Header.Get("Origin") == s.origin
		},
	}
	return s
}

// Routes returns the router wrapped in the CORS middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Information Endpoints
	mux.HandleFunc("GET /api/state", s.handleGetState)
	mux.HandleFunc("GET /api/catalog", s.handleGetCatalog)

	// Action Endpoints
	mux.HandleFunc("POST /api/click", s.handleClick)
	mux.HandleFunc("POST /api/producers/buy", s.handleBuyProducer)
	mux.HandleFunc("POST /api/producers/sell", s.handleSellProducer)
	mux.HandleFunc("POST /api/upgrades/buy", s.handleBuyUpgrade)
	mux.HandleFunc("POST /api/mutations/unlock", s.handleUnlockMutation)
	mux.HandleFunc("POST /api/assets/buy", s.handleBuyShares)
	mux.HandleFunc("POST /api/assets/sell", s.handleSellShares)

	// Apocalypse Flow
	mux.HandleFunc("POST /api/apocalypse/request", s.handleRequestApocalypse)
	mux.HandleFunc("POST /api/apocalypse/confirm", s.handleConfirmApocalypse)
	mux.HandleFunc("POST /api/apocalypse/cancel", s.handleCancelApocalypse)

	// Persistence
	mux.HandleFunc("POST /api/save", s.handleSave)
	mux.HandleFunc("GET /api/save/export", s.handleExport)
	mux.HandleFunc("POST /api/save/import", s.handleImport)

	// Real-Time WebSocket Endpoint
	mux.HandleFunc("GET /ws", s.handleWs)

	return s.corsMiddleware(mux)
}

// Save writes the current game to the save slot.
func (s *Server) Save(ctx context.Context) error {
	data, err := s.engine.Serialize()
	if err != nil {
		return err
	}
	return s.slot.Save(ctx, data)
}

// handleGetState returns the state snapshot with derived values.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

// handleGetCatalog returns the static catalog the client renders shops from.
func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Catalog())
}

// handleClick resolves one manual click. Clients are rate limited per IP.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	if !s.clicks.allow(clientIP(r)) {
		http.Error(w, "Too many clicks", http.StatusTooManyRequests)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Click())
}

func (s *Server) handleBuyProducer(w http.ResponseWriter, r *http.Request) {
	var req ProducerRequest
	if !decode(w, r, &req) {
		return
	}

	var (
		res game.Purchase
		err error
	)
	if req.Max {
		res, err = s.engine.BuyMaxProducer(req.ProducerID)
	} else {
		res, err = s.engine.BuyProducer(req.ProducerID, defaultAmount(req.Amount))
	}
	s.respond(w, res, err)
}

func (s *Server) handleSellProducer(w http.ResponseWriter, r *http.Request) {
	var req ProducerRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.engine.SellProducer(req.ProducerID, defaultAmount(req.Amount))
	s.respond(w, res, err)
}

func (s *Server) handleBuyUpgrade(w http.ResponseWriter, r *http.Request) {
	var req UpgradeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.engine.BuyUpgrade(req.UpgradeID); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleUnlockMutation(w http.ResponseWriter, r *http.Request) {
	var req MutationRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.engine.UnlockMutation(req.MutationID); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleBuyShares(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.engine.BuyShares(req.AssetID, req.Shares)
	s.respond(w, res, err)
}

func (s *Server) handleSellShares(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.engine.SellShares(req.AssetID, req.Shares)
	s.respond(w, res, err)
}

// handleRequestApocalypse asks for confirmation. The preview is returned even when refused.
func (s *Server) handleRequestApocalypse(w http.ResponseWriter, r *http.Request) {
	preview, err := s.engine.RequestApocalypse()
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error(), "preview": preview})
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleConfirmApocalypse executes the reset and saves immediately.
func (s *Server) handleConfirmApocalypse(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.ConfirmApocalypse()
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Save(r.Context()); err != nil {
		s.log.Error("save after apocalypse", "err", err)
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCancelApocalypse(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.CancelApocalypse(); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.Save(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport downloads the current save as a JSON file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.engine.Serialize()
	if err != nil {
		s.fail(w, err)
		return
	}
	name := "chaos-" + time.Now().UTC().Format("20060102-150405") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Write(data)
}

// handleImport replaces the game with an uploaded save.
// Unknown or reserved members are dropped and listed in the response.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSaveBytes))
	if err != nil {
		http.Error(w, "Save too large", http.StatusRequestEntityTooLarge)
		return
	}
	report, err := s.engine.Load(data)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Save(r.Context()); err != nil {
		s.log.Error("save after import", "err", err)
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleWs(w http.ResponseWriter, r *http.Request) {
	greeting, err := json.Marshal(Message{Type: "snapshot", Payload: s.engine.Snapshot(), Sender: "server"})
	if err != nil {
		s.fail(w, err)
		return
	}
	ServeWs(s.hub, &s.upgrader, greeting, w, r)
}

// corsMiddleware lets the browser client talk to the server across origins.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed", "err", err)
	}
	http.Error(w, err.Error(), code)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrUnknownID):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInsufficientChaos),
		errors.Is(err, game.ErrInsufficientTokens),
		errors.Is(err, game.ErrInsufficientShares):
		return http.StatusPaymentRequired
	case errors.Is(err, game.ErrLocked):
		return http.StatusForbidden
	case errors.Is(err, game.ErrAlreadyOwned),
		errors.Is(err, game.ErrApocalypseNotReady),
		errors.Is(err, game.ErrZeroReward),
		errors.Is(err, game.ErrNotConfirming):
		return http.StatusConflict
	case errors.Is(err, game.ErrInvalidAmount),
		errors.Is(err, game.ErrMalformedSave):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func defaultAmount(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

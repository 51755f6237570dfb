// Package api provides the HTTP REST API server for quarterlens.
//
// It exposes endpoints for single and batch quarterly-report scraping,
// the forthcoming-results calendar, market news, and WebSocket progress
// streaming.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rsampath/quarterlens/internal/calendar"
	"github.com/rsampath/quarterlens/internal/config"
	"github.com/rsampath/quarterlens/internal/logger"
	"github.com/rsampath/quarterlens/internal/news"
	"github.com/rsampath/quarterlens/internal/resolver"
	"github.com/rsampath/quarterlens/internal/scrape"
	"github.com/rsampath/quarterlens/pkg/models"
	"github.com/rsampath/quarterlens/pkg/utils"
)

// Version is stamped by the build and surfaced in /health.
var Version = "dev"

// batchTimeout bounds one POST /stocks request. Batches run sequentially
// with a fixed delay between upstream fetches, so large ones take minutes.
const batchTimeout = 10 * time.Minute

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	screener *scrape.Screener
	index    *resolver.Index
	resolver *resolver.Resolver
	calendar *calendar.Calendar
	news     *news.Aggregator
	wsHub    *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
// No network activity starts until ListenAndServe.
func NewServer(cfg *config.Config) (*Server, error) {
	screener := scrape.NewScreener(scrape.Options{
		BaseURL:     cfg.Scraper.BaseURL,
		Timeout:     time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second,
		BatchDelay:  time.Duration(cfg.Scraper.BatchDelayMs) * time.Millisecond,
		MaxQuarters: cfg.Scraper.MaxQuarters,
		CacheTTL:    time.Duration(cfg.Scraper.CacheTTL) * time.Second,
	})

	index := resolver.NewIndex(resolver.IndexOptions{
		URL:       cfg.Index.EquityListURL,
		HomeURL:   cfg.Index.HomeURL,
		Timeout:   time.Duration(cfg.Index.TimeoutSeconds) * time.Second,
		BatchSize: cfg.Index.BatchSize,
	})
	res := resolver.New(index)

	cal := calendar.New(calendar.Options{
		URL:            cfg.Calendar.URL,
		AllowedDomains: cfg.Calendar.AllowedDomains,
		Timeout:        time.Duration(cfg.Calendar.TimeoutSeconds) * time.Second,
		CacheTTL:       time.Duration(cfg.Calendar.CacheTTL) * time.Second,
	}, res)

	newsOpts := news.Options{
		Timeout:  time.Duration(cfg.News.TimeoutSeconds) * time.Second,
		CacheTTL: time.Duration(cfg.News.CacheTTL) * time.Second,
	}
	for _, src := range cfg.News.Sources {
		newsOpts.Sources = append(newsOpts.Sources, news.Source{Name: src.Name, RSSURL: src.RSSURL})
	}

	srv := &Server{
		cfg:      cfg,
		screener: screener,
		index:    index,
		resolver: res,
		calendar: cal,
		news:     news.New(newsOpts),
		wsHub:    NewWSHub(),
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown. The symbol
// index loads in the background; handlers answer from partial data until it
// is ready.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: batchTimeout + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Background workers
	go s.wsHub.Run()
	go s.janitor()
	s.index.LoadAsync(context.Background())

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info(context.Background(), "API server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(context.Background(), "HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info(context.Background(), "Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// janitor periodically drops expired cache entries across components.
func (s *Server) janitor() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		s.screener.CleanupCache()
		s.calendar.CleanupCache()
		s.news.CleanupCache()
	}
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(batchTimeout))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.Server.CORSOrigins) > 0 {
		origins = s.cfg.Server.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes answer at the root and under /api; deployed clients of the
	// original service used the prefixed form.
	r.Get("/health", s.handleHealth)
	s.mountRoutes(r)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		s.mountRoutes(r)
	})

	return r
}

func (s *Server) mountRoutes(r chi.Router) {
	// Quarterly reports
	r.Get("/stock/{symbol}", s.handleStock)
	r.Post("/stocks", s.handleStocks)

	// Results calendar
	r.Get("/upcoming_results", s.handleUpcoming)

	// News
	r.Get("/news", s.handleNews)

	// Configuration
	r.Get("/config", s.handleGetConfig)

	// WebSocket
	r.Get("/ws", s.handleWebSocket)
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// StocksRequest is the body for POST /stocks.
type StocksRequest struct {
	Symbols []string `json:"symbols"`
}

// BatchResponse is the reply for POST /stocks. Results and Errors are keyed
// by the symbols exactly as the caller spelled them; both keys are always
// present, empty maps included.
type BatchResponse struct {
	Success bool                                      `json:"success"`
	Results map[string]*models.CompanyQuarterlyReport `json:"results"`
	Errors  map[string]string                         `json:"errors"`
}

// ============================================================
// Handlers
// ============================================================

// handleHealth reports liveness plus the state of the background symbol
// index load. The flat shape, not the envelope, is the published contract
// for this endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state, _ := s.index.State()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"version":   Version,
		"index":     state.String(),
		"companies": s.index.Size(),
		"time_ist":  utils.FormatDateTimeIST(utils.NowIST()),
	})
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	report, err := s.screener.FetchReport(ctx, symbol)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Fetch(ctx, report.Symbol, len(report.Quarters), report.MarketCap)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    report,
	})
}

func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	var req StocksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols list is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), batchTimeout)
	defer cancel()

	s.wsHub.Broadcast(WSMessage{
		Type: "batch_started",
		Data: map[string]interface{}{"total": len(req.Symbols)},
	})

	results, errs := s.screener.FetchBatch(ctx, req.Symbols, func(symbol string, done, total int, err error) {
		data := map[string]interface{}{
			"symbol": symbol,
			"done":   done,
			"total":  total,
		}
		if err != nil {
			data["error"] = err.Error()
		}
		s.wsHub.Broadcast(WSMessage{Type: "symbol_done", Data: data})
	})

	s.wsHub.Broadcast(WSMessage{
		Type: "batch_complete",
		Data: map[string]interface{}{
			"succeeded": len(results),
			"failed":    len(errs),
		},
	})

	logger.Batch(ctx, len(req.Symbols), len(results), len(errs))

	writeJSON(w, http.StatusOK, BatchResponse{
		Success: true,
		Results: results,
		Errors:  errs,
	})
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	results, err := s.calendar.Upcoming(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    results,
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.News.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var (
		articles []models.NewsArticle
		err      error
	)
	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		articles, err = s.news.ForSymbol(ctx, symbol, limit)
	} else {
		articles, err = s.news.Market(ctx, limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if articles == nil {
		articles = []models.NewsArticle{}
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    articles,
	})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, client)
					close(client.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}

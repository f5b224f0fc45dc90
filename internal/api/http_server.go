package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"tableside/internal/config"
	"tableside/internal/database"
	"tableside/internal/domain"
	"tableside/internal/export"
	"tableside/internal/menu"
	"tableside/internal/metrics"
	"tableside/internal/models"
	"tableside/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HTTPServer serves the ordering and kitchen pages, the menu resource, and
// the JSON API both pages talk to.
type HTTPServer struct {
	cfg     *config.Config
	orders  domain.OrderStore
	customs domain.MenuItemStore
	events  domain.EventPublisher
	loader  *menu.Loader
	kitchen *service.KitchenDisplay
	archive *database.Archive
	logger  *zerolog.Logger
	server  *http.Server
	auth    *HTTPAuth
}

func NewHTTPServer(
	cfg *config.Config,
	orders domain.OrderStore,
	customs domain.MenuItemStore,
	events domain.EventPublisher,
	loader *menu.Loader,
	kitchen *service.KitchenDisplay,
	archive *database.Archive,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:     cfg,
		orders:  orders,
		customs: customs,
		events:  events,
		loader:  loader,
		kitchen: kitchen,
		archive: archive,
		logger:  logger,
	}
	srv.auth = NewHTTPAuth(cfg.API)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealthz)
	mux.HandleFunc(models.MenuResourcePath, srv.handleMenuResource)
	mux.HandleFunc("/api/v1/menu", srv.handleMenu)
	mux.HandleFunc("/api/v1/menu/items", srv.handleAddMenuItem)
	mux.HandleFunc("/api/v1/orders", srv.handleOrders)
	mux.HandleFunc("/api/v1/orders/aggregate", srv.handleAggregate)
	mux.HandleFunc("/api/v1/orders/export", srv.handleExport)
	mux.HandleFunc("/api/v1/orders/archive", srv.handleArchive)
	mux.HandleFunc("/api/v1/orders/", srv.handleOrderByIndex)
	mux.Handle("/", http.FileServer(http.Dir(cfg.Server.WebRoot)))

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMenuResource serves the raw menu file at the path the smoke test and
// the ordering page both expect.
func (s *HTTPServer) handleMenuResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.cfg.Server.MenuPath == "" {
		writeError(w, http.StatusNotFound, "menu resource is not configured")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	http.ServeFile(w, r, s.cfg.Server.MenuPath)
}

func (s *HTTPServer) handleMenu(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	items := s.loader.Load(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *HTTPServer) handleAddMenuItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Category string `json:"category"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Category) == "" || strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "category and name are required")
		return
	}

	sess := service.NewOrderSession(s.orders, s.customs, s.events, s.logger)
	if err := sess.AddCustomMenuItem(r.Context(), body.Category, body.Name); err != nil {
		s.logger.Error().Err(err).Msg("add custom menu item")
		writeError(w, http.StatusInternalServerError, "could not persist custom item")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (s *HTTPServer) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listOrders(w, r)
	case http.MethodPost:
		s.submitOrder(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) listOrders(w http.ResponseWriter, r *http.Request) {
	if err := s.kitchen.Refresh(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("refresh order store")
		writeError(w, http.StatusInternalServerError, "could not load orders")
		return
	}
	orders := s.kitchen.Orders()
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// submitOrder replays the posted lines through an order session so the
// submit path (fresh store re-read before append) matches the page flow.
func (s *HTTPServer) submitOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID    string `json:"id"`
		Lines []struct {
			Name     string `json:"name"`
			Category string `json:"category"`
			Quantity int    `json:"quantity"`
		} `json:"lines"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess := service.NewOrderSession(s.orders, s.customs, s.events, s.logger)
	sess.Start(body.ID)
	if !sess.Active() {
		writeError(w, http.StatusBadRequest, "reservation id is required")
		return
	}
	for _, line := range body.Lines {
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		sess.AddItem(line.Name, line.Category)
		sess.AdjustQuantity(line.Name, qty-1)
	}

	if err := sess.Submit(r.Context()); err != nil {
		switch err {
		case service.ErrEmptyOrder, service.ErrNoActiveOrder:
			writeError(w, http.StatusBadRequest, "order has no items")
		default:
			s.logger.Error().Err(err).Msg("submit order")
			writeError(w, http.StatusInternalServerError, "could not persist order")
		}
		return
	}

	metrics.IncOrdersSubmitted()
	writeJSON(w, http.StatusCreated, map[string]string{"status": "submitted"})
}

func (s *HTTPServer) handleOrderByIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/orders/")
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "order index must be an integer")
		return
	}

	if err := s.kitchen.Refresh(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("refresh order store")
		writeError(w, http.StatusInternalServerError, "could not load orders")
		return
	}

	removed, err := s.kitchen.Complete(r.Context(), index)
	if err != nil {
		s.logger.Error().Err(err).Msg("complete order")
		writeError(w, http.StatusInternalServerError, "could not persist order store")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	metrics.IncOrdersCompleted()
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (s *HTTPServer) handleAggregate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Indices []int `json:"indices"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.kitchen.Refresh(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("refresh order store")
		writeError(w, http.StatusInternalServerError, "could not load orders")
		return
	}

	lines := s.kitchen.Aggregate(body.Indices)
	if lines == nil {
		lines = []service.AggregateLine{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": lines})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	orders, err := s.orders.LoadAll(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("load orders for export")
		writeError(w, http.StatusInternalServerError, "could not load orders")
		return
	}

	// save=1 keeps a copy on the server under the configured export directory
	// instead of streaming the workbook to the caller.
	if r.URL.Query().Get("save") == "1" {
		if s.cfg.Exports.Path == "" {
			writeError(w, http.StatusBadRequest, "exports.path is not configured")
			return
		}
		path, err := export.WriteOrdersFile(s.cfg.Exports.Path, orders)
		if err != nil {
			s.logger.Error().Err(err).Msg("write orders workbook")
			writeError(w, http.StatusInternalServerError, "could not write export file")
			return
		}
		s.logger.Info().Str("path", path).Msg("orders exported to file")
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "path": path})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.xlsx"`)
	if err := export.StreamOrders(w, orders); err != nil {
		s.logger.Error().Err(err).Msg("stream orders workbook")
	}
}

func (s *HTTPServer) handleArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "archive is not enabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	rows, err := s.archive.ListCompleted(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list archived orders")
		writeError(w, http.StatusInternalServerError, "could not load archive")
		return
	}
	if rows == nil {
		rows = []database.CompletedOrder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": rows})
}

// HTTPAuth provides API-key auth and per-key rate limiting. Only /api/v1/
// paths are guarded; the pages and the menu resource stay open because the
// deployment smoke test fetches them anonymously.
type HTTPAuth struct {
	cfg      config.APIConfig
	clients  map[string]config.APIClientKey
	limiters sync.Map // map[string]*rate.Limiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &HTTPAuth{cfg: cfg, clients: m}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v1/") {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.Auth.Enabled {
			if err := a.checkAuth(r); err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
		}

		if err := a.checkRateLimit(r); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) headerName() string {
	name := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if name == "" {
		name = "x-api-key"
	}
	return name
}

func (a *HTTPAuth) checkAuth(r *http.Request) error {
	apiKey := strings.TrimSpace(r.Header.Get(a.headerName()))
	if apiKey == "" {
		return fmt.Errorf("missing api key header")
	}

	for key := range a.clients {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			return nil
		}
	}
	return fmt.Errorf("invalid api key")
}

func (a *HTTPAuth) checkRateLimit(r *http.Request) error {
	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}

	lim := a.getLimiter(a.clientKey(r))
	if !lim.Allow() {
		return fmt.Errorf("rate limit exceeded")
	}
	return nil
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.headerName())); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (a *HTTPAuth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := a.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = models.RateLimitBurst
	}

	lim := rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

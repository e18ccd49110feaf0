// Package httpapi exposes the catalog and payment operations over HTTP.
// Handlers do request/response plumbing only and delegate to the services.
package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pwisniewski/hipokrates/internal/common"
	"github.com/pwisniewski/hipokrates/internal/logging"
	"github.com/pwisniewski/hipokrates/internal/models"
	"github.com/pwisniewski/hipokrates/internal/server/auth"
	"github.com/pwisniewski/hipokrates/internal/server/services"
	"github.com/pwisniewski/hipokrates/internal/storage"
)

// Handler holds all dependencies for the HTTP handlers.
type Handler struct {
	catalog  *services.CatalogService
	payments *services.PaymentService
	verifier *auth.Verifier
	limiter  *auth.LoginLimiter

	jwtSecret     []byte
	tokenValidity time.Duration
	maxSaveBytes  int64
	logger        logging.Logger
}

func NewHandler(
	catalog *services.CatalogService,
	payments *services.PaymentService,
	verifier *auth.Verifier,
	limiter *auth.LoginLimiter,
	jwtSecret []byte,
	tokenValidity time.Duration,
	maxSaveBytes int64,
	logger logging.Logger,
) *Handler {
	return &Handler{
		catalog:       catalog,
		payments:      payments,
		verifier:      verifier,
		limiter:       limiter,
		jwtSecret:     jwtSecret,
		tokenValidity: tokenValidity,
		maxSaveBytes:  maxSaveBytes,
		logger:        logger.With("module", "httpapi"),
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type saveCatalogRequest struct {
	Rows []models.CatalogEntry `json:"rows"`
}

type paymentRequest struct {
	UID         string          `json:"uid"`
	Timestamp   string          `json:"timestamp"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Notes       string          `json:"notes"`
}

// Login verifies the staff password and issues a session token. Attempts
// are rate-limited per client IP.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	id := clientID(r)

	if ok, retryAfter := h.limiter.Check(id); !ok {
		seconds := strconv.Itoa(int(retryAfter.Seconds()) + 1)
		w.Header().Set("Retry-After", seconds)
		writeError(w, http.StatusTooManyRequests,
			"too many login attempts, try again in "+seconds+" seconds")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.verifier.Verify(req.Password) {
		h.limiter.RecordFailure(id)
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	h.limiter.Reset(id)

	token, err := auth.GenerateToken(h.jwtSecret, h.tokenValidity)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": token})
}

// GetCatalog returns the catalog sorted alphabetically by name.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"catalog": items})
}

// SearchCatalog returns entries whose name contains the query.
func (h *Handler) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items, err := h.catalog.Search(r.Context(), req.Query)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"catalog": items})
}

// EditCatalog returns every raw row for the edit view.
func (h *Handler) EditCatalog(w http.ResponseWriter, r *http.Request) {
	rows, err := h.catalog.Rows(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.CatalogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

// SaveCatalog validates and replaces the whole catalog.
func (h *Handler) SaveCatalog(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSaveBytes)

	var req saveCatalogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.catalog.Save(r.Context(), req.Rows)
	if err != nil {
		h.writeSaveError(w, r, err, "catalog was modified by another user, refresh and try again")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": saveMessage(outcome)})
}

// CreatePayment appends one payment record.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.payments.Append(r.Context(), services.PaymentInput{
		UID:         req.UID,
		Timestamp:   req.Timestamp,
		Description: req.Description,
		Amount:      req.Amount,
		Notes:       req.Notes,
	})
	if err != nil {
		h.writeSaveError(w, r, err, "payments were modified by another user, try again")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": saveMessage(outcome)})
}

// PaymentStatsToday aggregates payments recorded today (Warsaw clock).
func (h *Handler) PaymentStatsToday(w http.ResponseWriter, r *http.Request) {
	stats, err := h.payments.StatsToday(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":       stats.Count,
		"sum":         stats.Sum.InexactFloat64(),
		"latest_date": stats.Latest,
	})
}

// PaymentsByDate lists payments for the requested day, newest first.
func (h *Handler) PaymentsByDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date parameter is required")
		return
	}

	payments, err := h.payments.ByDate(r.Context(), date)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": payments})
}

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireSession rejects requests without a valid bearer token.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}
		if _, err := auth.ParseToken(token, h.jwtSecret); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeSaveError maps errors from the save paths onto HTTP statuses:
// validation 400, conflict exhaustion 409, everything else 500.
func (h *Handler) writeSaveError(w http.ResponseWriter, r *http.Request, err error, conflictMsg string) {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}
	if errors.Is(err, common.ErrVersionConflict) {
		writeError(w, http.StatusConflict, conflictMsg)
		return
	}
	h.serverError(w, r, err)
}

// serverError logs full detail for operators and returns a generic message
// to the caller.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func saveMessage(outcome storage.WriteOutcome) string {
	if outcome == storage.WriteDegraded {
		return "saved locally"
	}
	return "saved to storage"
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}

func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

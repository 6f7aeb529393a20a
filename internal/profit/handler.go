package profit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultPerPage = 25
	maxPerPage     = 100
	minYear        = 2020
	maxYear        = 2030
	maxSearchLen   = 100
)

// Middleware wraps a handler, typically with the bearer-auth gate.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// Handler serves the profit endpoints. All routes require an authenticated
// user; the gate is injected so this package stays independent of the auth
// wiring.
type Handler struct {
	log   *slog.Logger
	store Store
}

// NewHandler constructs a profit Handler.
func NewHandler(log *slog.Logger, store Store) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, store: store}
}

// Register wires profit routes onto the mux behind requireUser.
func (h *Handler) Register(mux *http.ServeMux, requireUser Middleware) {
	if h == nil || mux == nil {
		return
	}
	if requireUser == nil {
		requireUser = func(next http.HandlerFunc) http.HandlerFunc { return next }
	}
	mux.HandleFunc("GET /profits", requireUser(h.handleList))
	mux.HandleFunc("GET /profits/companies", requireUser(h.handleCompanies))
	mux.HandleFunc("GET /profits/years", requireUser(h.handleYears))
	mux.HandleFunc("GET /profits/stats", requireUser(h.handleStats))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilters(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	page, err := h.store.List(r.Context(), f)
	if err != nil {
		h.log.Error("profit.list.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.store.Companies(r.Context())
	if err != nil {
		h.log.Error("profit.companies.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	if companies == nil {
		companies = []string{}
	}
	writeJSON(w, http.StatusOK, companies)
}

func (h *Handler) handleYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.store.Years(r.Context())
	if err != nil {
		h.log.Error("profit.years.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, years)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.log.Error("profit.stats.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// parseListFilters validates the listing query parameters.
func parseListFilters(r *http.Request) (ListFilters, error) {
	q := r.URL.Query()
	f := ListFilters{Page: 1, PerPage: defaultPerPage}

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return ListFilters{}, errValidation("page must be a positive integer")
		}
		f.Page = n
	}
	if raw := q.Get("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPerPage {
			return ListFilters{}, errValidation("per_page must be between 1 and 100")
		}
		f.PerPage = n
	}
	if raw := q.Get("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minYear || n > maxYear {
			return ListFilters{}, errValidation("year must be between 2020 and 2030")
		}
		f.Year = n
	}

	f.Company = strings.TrimSpace(q.Get("company"))
	f.Search = strings.TrimSpace(q.Get("search"))
	if len(f.Search) > maxSearchLen {
		return ListFilters{}, errValidation("search must be at most 100 characters")
	}

	return f, nil
}

type errValidation string

func (e errValidation) Error() string { return string(e) }

type errorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail, ErrorCode: code})
}

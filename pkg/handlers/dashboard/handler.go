package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/de-tools/sales-atlas/pkg/adapters"
	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/de-tools/sales-atlas/pkg/services/dashboard"
	"github.com/de-tools/sales-atlas/pkg/services/filter"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

type Handler struct {
	svc dashboard.Service
}

func NewHandler(svc dashboard.Service) *Handler {
	return &Handler{
		svc: svc,
	}
}

func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.svc.Datasets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, adapters.MapDatasetsDomainToApi(profiles))
}

func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")

	opts, err := h.svc.Options(r.Context(), dataset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, adapters.MapFilterOptionsDomainToApi(*opts))
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")

	criteria, err := criteriaFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	topN, err := intParam(r, "top", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	d, err := h.svc.Dashboard(r.Context(), dataset, dashboard.Request{Criteria: criteria, TopN: topN})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, adapters.MapDashboardDomainToApi(d))
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")

	criteria, err := criteriaFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", defaultPageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if limit <= 0 || limit > maxPageSize {
		writeError(w, r, &domain.CriteriaError{Msg: fmt.Sprintf("'limit' must be between 1 and %d", maxPageSize)})
		return
	}
	if offset < 0 {
		writeError(w, r, &domain.CriteriaError{Msg: "'offset' must not be negative"})
		return
	}

	page, err := h.svc.Records(r.Context(), dataset, criteria, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, adapters.MapPageDomainToApi(page))
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	dataset := chi.URLParam(r, "dataset")

	criteria, err := criteriaFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.svc.Export(ctx, dataset, criteria)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", dashboard.ExportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dashboard.ExportFileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	if _, err := w.Write(out); err != nil {
		logger.Error().
			Err(err).
			Str("dataset", dataset).
			Msg("failed to write export")
	}
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "ok"})
}

func criteriaFromQuery(r *http.Request) (domain.Criteria, error) {
	q := r.URL.Query()
	in := filter.Input{
		From: q.Get("from"),
		To:   q.Get("to"),
	}
	for param, dst := range map[string]*[]string{
		"region":    &in.Regions,
		"category":  &in.Categories,
		"ship_mode": &in.ShipModes,
	} {
		if values, ok := q[param]; ok {
			*dst = append([]string{}, values...)
		}
	}
	return filter.ParseCriteria(in)
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.CriteriaError{Msg: fmt.Sprintf("invalid '%s' value. Expected an integer", name)}
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := zerolog.Ctx(r.Context())

	var loadErr *domain.LoadError
	switch {
	case errors.Is(err, domain.ErrInvalidCriteria):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrDatasetNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &loadErr):
		logger.Error().Err(err).Str("source", loadErr.Source).Msg("failed to load dataset")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		logger.Error().Err(err).Msg("request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

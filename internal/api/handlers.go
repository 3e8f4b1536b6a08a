package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"StockLens/internal/analytics"
	"StockLens/internal/collector"
	"StockLens/internal/recorder"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	symbol, ok := pathSymbol(chi.URLParam(r, "symbol"))
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidSymbol)
		return
	}
	q, err := h.svc.Collector().Quote(r.Context(), symbol)
	if err != nil {
		h.fail(w, err, fmt.Sprintf("Company symbol %s not found", symbol), "Error retrieving stock data")
		return
	}
	writeJSON(w, http.StatusOK, newStockDataResponse(q))
}

func (h *Handler) postHistorical(w http.ResponseWriter, r *http.Request) {
	req, msg := h.decodeDateRange(w, r)
	if req == nil {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	series, err := h.svc.Collector().Series(r.Context(), req.symbol, req.start, req.end)
	if err != nil {
		h.fail(w, err, fmt.Sprintf("No data found for %s in the specified date range", req.symbol), "Error retrieving historical data")
		return
	}
	writeJSON(w, http.StatusOK, newHistoricalDataResponse(series))
}

func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request) {
	symbol, ok := pathSymbol(chi.URLParam(r, "symbol"))
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidSymbol)
		return
	}
	p, err := h.svc.Collector().Profile(r.Context(), symbol)
	if err != nil {
		h.fail(w, err, fmt.Sprintf("Company symbol %s not found", symbol), "Error retrieving company data")
		return
	}
	writeJSON(w, http.StatusOK, newCompanyInfoResponse(p))
}

func (h *Handler) postAnalysis(w http.ResponseWriter, r *http.Request) {
	req, msg := h.decodeDateRange(w, r)
	if req == nil {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	res, err := h.svc.Analyze(r.Context(), req.symbol, req.start, req.end, recorder.TriggerAPI)
	if err != nil {
		h.fail(w, err, fmt.Sprintf("No data found for %s in the specified date range", req.symbol), "Error performing analysis")
		return
	}
	writeJSON(w, http.StatusOK, newAnalysisResponse(res))
}

func (h *Handler) getAnalyses(w http.ResponseWriter, r *http.Request) {
	symbol, ok := pathSymbol(chi.URLParam(r, "symbol"))
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidSymbol)
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}
	recs, err := h.svc.History(symbol, limit)
	if err != nil {
		h.fail(w, err, "", "Error retrieving analyses")
		return
	}
	writeJSON(w, http.StatusOK, newAnalysesResponse(symbol, recs))
}

// fail maps err to a status code and error envelope.
func (h *Handler) fail(w http.ResponseWriter, err error, notFound, prefix string) {
	switch {
	case errors.Is(err, collector.ErrInvalidSymbol):
		writeError(w, http.StatusBadRequest, msgInvalidSymbol)
		return
	case errors.Is(err, collector.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, msgInvalidRange)
		return
	case errors.Is(err, collector.ErrNoData):
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	if code, ok := analytics.CodeOf(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: string(code)})
		return
	}
	h.logger.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", prefix, err))
}

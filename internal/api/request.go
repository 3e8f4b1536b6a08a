package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"StockLens/internal/collector"
	"StockLens/internal/model"
)

const (
	msgInvalidSymbol = "Invalid company symbol"
	msgInvalidDate   = "Invalid date format. Use YYYY-MM-DD"
	msgInvalidRange  = "End date cannot be before start date"
)

// dateRangeRequest is the body of /historical_stock and /company_analysis.
type dateRangeRequest struct {
	Symbol    string `json:"symbol" validate:"required,symbol"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type dateRange struct {
	symbol     string
	start, end time.Time
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("symbol", func(fl validator.FieldLevel) bool {
		return collector.ValidSymbol(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
	})
	return v
}

// decodeDateRange parses and validates the request body, returning the
// client-facing message on failure.
func (h *Handler) decodeDateRange(w http.ResponseWriter, r *http.Request) (*dateRange, string) {
	var req dateRangeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&req); err != nil {
		return nil, "Invalid request body"
	}

	if err := h.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err.Error()
		}
		for _, fe := range verrs {
			if fe.Field() == "Symbol" {
				return nil, msgInvalidSymbol
			}
		}
		return nil, msgInvalidDate
	}

	start, err := time.Parse(model.DateLayout, req.StartDate)
	if err != nil {
		return nil, msgInvalidDate
	}
	end, err := time.Parse(model.DateLayout, req.EndDate)
	if err != nil {
		return nil, msgInvalidDate
	}
	if end.Before(start) {
		return nil, msgInvalidRange
	}
	return &dateRange{
		symbol: strings.ToUpper(strings.TrimSpace(req.Symbol)),
		start:  start,
		end:    end,
	}, ""
}

// pathSymbol validates the {symbol} URL parameter.
func pathSymbol(raw string) (string, bool) {
	s, err := collector.NormalizeSymbol(raw)
	return s, err == nil
}

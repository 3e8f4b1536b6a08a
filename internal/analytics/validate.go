package analytics

import (
	"math"

	"StockLens/internal/model"
)

func validateBars(bars []model.PriceBar) error {
	for i, b := range bars {
		if reason := barProblem(b); reason != "" {
			return invalidBar(i, "%s", reason)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return invalidBar(i, "date %s does not follow %s",
				b.Time.Format(model.DateLayout), bars[i-1].Time.Format(model.DateLayout))
		}
	}
	return nil
}

func barProblem(b model.PriceBar) string {
	switch {
	case !positiveFinite(b.Close):
		return "close must be a positive finite number"
	case b.Volume < 0:
		return "volume must not be negative"
	case !nonNegativeFinite(b.High) || !nonNegativeFinite(b.Low):
		return "high and low must be finite and non-negative"
	case b.High > 0 && b.Low > 0 && b.High < b.Low:
		return "high is below low"
	case b.High > 0 && b.High < b.Close:
		return "high is below close"
	case b.Low > 0 && b.Low > b.Close:
		return "low is above close"
	}
	return ""
}

// resolveReference picks the bar the price change is measured against: the
// bar preceding the window when supplied, otherwise the first bar.
func resolveReference(series *model.PriceSeries) (model.PriceBar, error) {
	if series.Reference == nil {
		return series.Bars[0], nil
	}
	ref := *series.Reference
	switch {
	case ref.Close == 0:
		return ref, ErrDivisionByZero
	case !positiveFinite(ref.Close):
		return ref, invalidBar(-1, "close must be a positive finite number")
	case !ref.Time.Before(series.Bars[0].Time):
		return ref, invalidBar(-1, "reference %s must precede the first bar %s",
			ref.Time.Format(model.DateLayout), series.Bars[0].Time.Format(model.DateLayout))
	}
	return ref, nil
}

func positiveFinite(v float64) bool {
	return v > 0 && finite(v)
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func nonNegativeFinite(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

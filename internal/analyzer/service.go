// Package analyzer runs analyses end to end: fetch a series, compute the
// summary and record the run.
package analyzer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"StockLens/internal/analytics"
	"StockLens/internal/collector"
	"StockLens/internal/model"
	"StockLens/internal/recorder"
)

// Service combines the collector, the engine and the recorder.
type Service struct {
	collector *collector.Collector
	engine    *analytics.Engine
	recorder  recorder.Recorder
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a Service. A nil recorder disables history.
func New(c *collector.Collector, e *analytics.Engine, r recorder.Recorder, logger *zap.Logger) *Service {
	if r == nil {
		r = recorder.NewNoopRecorder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{collector: c, engine: e, recorder: r, logger: logger, now: time.Now}
}

// Collector exposes the underlying collector for quote and profile lookups.
func (s *Service) Collector() *collector.Collector { return s.collector }

// Analyze fetches symbol's bars dated start..end and analyzes them.
// A failure to record the result is logged and does not fail the call.
func (s *Service) Analyze(ctx context.Context, symbol string, start, end time.Time, trigger string) (*model.AnalysisResult, error) {
	series, err := s.collector.Series(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Analyze(series.Symbol, series)
	if err != nil {
		s.logger.Warn("analysis rejected series",
			zap.String("symbol", series.Symbol), zap.Error(err))
		return nil, errors.Wrapf(err, "analyze %s", series.Symbol)
	}

	rec := recorder.NewAnalysisRecord(res, trigger, series.Start, series.End)
	if err := s.recorder.RecordAnalysis(rec); err != nil {
		s.logger.Error("record analysis failed",
			zap.String("symbol", res.Symbol), zap.Stringer("run_id", rec.RunID), zap.Error(err))
	}

	s.logger.Info("analysis complete",
		zap.String("symbol", res.Symbol),
		zap.String("trigger", trigger),
		zap.Int("bars", res.Bars),
		zap.String("trend", string(res.Trend)))
	return res, nil
}

// AnalyzeTrailing analyzes the days calendar days up to today.
func (s *Service) AnalyzeTrailing(ctx context.Context, symbol string, days int, trigger string) (*model.AnalysisResult, error) {
	end := s.now()
	return s.Analyze(ctx, symbol, end.AddDate(0, 0, -days), end, trigger)
}

// History returns up to limit recorded analyses for symbol, newest first.
func (s *Service) History(symbol string, limit int) ([]*recorder.AnalysisRecord, error) {
	symbol, err := collector.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	recs, err := s.recorder.RecentAnalyses(symbol, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "history %s", symbol)
	}
	return recs, nil
}

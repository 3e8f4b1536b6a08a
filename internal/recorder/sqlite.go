package recorder

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"StockLens/internal/model"
)

// SQLiteRecorder persists analysis history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create sqlite dir")
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// WAL lets API reads proceed while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			run_id           TEXT PRIMARY KEY,
			recorded_at      INTEGER NOT NULL,
			trigger_source   TEXT NOT NULL,
			symbol           TEXT NOT NULL,
			start_date       TEXT,
			end_date         TEXT,
			as_of            TEXT NOT NULL,
			bars             INTEGER,
			reference_date   TEXT,
			reference_close  REAL,
			last_close       REAL,
			price_change     REAL,
			price_change_pct REAL,
			sma50            REAL,
			sma200           REAL,
			ema20            REAL,
			rsi14            REAL,
			volatility       REAL,
			recent_high      REAL,
			recent_low       REAL,
			range_window     INTEGER,
			range_position   REAL,
			trend            TEXT,
			trend_reason     TEXT,
			volatility_level TEXT,
			narrative        TEXT,
			considerations   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_symbol_ts ON analyses(symbol, recorded_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return errors.Wrapf(err, "exec %q", s[:40])
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(rec *AnalysisRecord) error {
	if rec == nil || rec.Result == nil {
		return errors.New("record has no result")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	res := rec.Result
	_, err := r.db.Exec(`INSERT INTO analyses
		(run_id, recorded_at, trigger_source, symbol, start_date, end_date, as_of, bars,
		 reference_date, reference_close, last_close, price_change, price_change_pct,
		 sma50, sma200, ema20, rsi14, volatility,
		 recent_high, recent_low, range_window, range_position,
		 trend, trend_reason, volatility_level, narrative, considerations)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.RunID.String(), rec.RecordedAt.UnixNano(), rec.Trigger, res.Symbol,
		formatDate(rec.Start), formatDate(rec.End), formatDate(res.AsOf), res.Bars,
		formatDate(res.ReferenceDate), res.ReferenceClose, res.LastClose, res.PriceChange, res.PriceChangePct,
		res.SMA50, res.SMA200, res.EMA20, res.RSI14, res.Volatility,
		res.RecentHigh, res.RecentLow, res.RangeWindow, res.RangePosition,
		string(res.Trend), res.TrendReason, string(res.VolatilityLevel), res.Narrative, res.Considerations,
	)
	if err != nil {
		return errors.Wrapf(err, "insert analysis %s", res.Symbol)
	}
	return nil
}

func (r *SQLiteRecorder) RecentAnalyses(symbol string, limit int) ([]*AnalysisRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.Query(`SELECT
		run_id, recorded_at, trigger_source, symbol, start_date, end_date, as_of, bars,
		reference_date, reference_close, last_close, price_change, price_change_pct,
		sma50, sma200, ema20, rsi14, volatility,
		recent_high, recent_low, range_window, range_position,
		trend, trend_reason, volatility_level, narrative, considerations
		FROM analyses WHERE symbol = ? ORDER BY recorded_at DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "query analyses %s", symbol)
	}
	defer rows.Close()

	var out []*AnalysisRecord
	for rows.Next() {
		var (
			rec                       AnalysisRecord
			res                       model.AnalysisResult
			runID, trend, level       string
			recordedAt                int64
			start, end, asOf, refDate string
		)
		err := rows.Scan(
			&runID, &recordedAt, &rec.Trigger, &res.Symbol, &start, &end, &asOf, &res.Bars,
			&refDate, &res.ReferenceClose, &res.LastClose, &res.PriceChange, &res.PriceChangePct,
			&res.SMA50, &res.SMA200, &res.EMA20, &res.RSI14, &res.Volatility,
			&res.RecentHigh, &res.RecentLow, &res.RangeWindow, &res.RangePosition,
			&trend, &res.TrendReason, &level, &res.Narrative, &res.Considerations,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan analysis")
		}
		if rec.RunID, err = uuid.Parse(runID); err != nil {
			return nil, errors.Wrapf(err, "parse run id %q", runID)
		}
		rec.RecordedAt = time.Unix(0, recordedAt)
		rec.Start, rec.End = parseDate(start), parseDate(end)
		res.AsOf, res.ReferenceDate = parseDate(asOf), parseDate(refDate)
		res.Trend = model.Trend(trend)
		res.VolatilityLevel = model.VolatilityLevel(level)
		rec.Result = &res
		out = append(out, &rec)
	}
	return out, errors.Wrap(rows.Err(), "iterate analyses")
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(model.DateLayout, s)
	return t
}

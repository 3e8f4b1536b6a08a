package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"StockLens/internal/analytics"
	"StockLens/internal/analyzer"
	"StockLens/internal/collector"
	"StockLens/internal/notifier"
	"StockLens/internal/recorder"
)

const (
	// reportParallelism bounds concurrent symbol analyses in a report run.
	reportParallelism = 4
	// commandLookbackDays is the window analyzed by /analyze.
	commandLookbackDays = 365
	sendRetries         = 3
)

// Sender delivers formatted messages.
type Sender interface {
	Enabled() bool
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the watchlist report on a cron schedule and answers bot commands.
type Scheduler struct {
	Cron         *cron.Cron
	Service      *analyzer.Service
	Notifier     Sender
	Watchlist    []string
	LookbackDays int
	Ctx          context.Context

	logger *zap.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc *analyzer.Service, tn Sender, watchlist []string, lookbackDays int, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Service:      svc,
		Notifier:     tn,
		Watchlist:    watchlist,
		LookbackDays: lookbackDays,
		Ctx:          ctx,
		logger:       logger,
		now:          time.Now,
	}
}

// Register schedules the watchlist report.
func (s *Scheduler) Register(reportCron string) error {
	if _, err := s.Cron.AddFunc(reportCron, func() { s.RunReportNow() }); err != nil {
		return errors.Wrap(err, "register report task")
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.Int("entries", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs, including
// reports started with RunReportAsync.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// RunReportAsync runs the watchlist report in the background. Stop waits
// for it.
func (s *Scheduler) RunReportAsync() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunReportNow()
	}()
}

// RunReportNow analyzes every watchlist symbol and sends the report
// (for manual trigger / RUN_ON_START). One symbol failing does not stop the others.
func (s *Scheduler) RunReportNow() []notifier.ReportEntry {
	s.logger.Info("running watchlist report", zap.Int("symbols", len(s.Watchlist)))
	if len(s.Watchlist) == 0 {
		return nil
	}

	entries := make([]notifier.ReportEntry, len(s.Watchlist))
	g, ctx := errgroup.WithContext(s.Ctx)
	g.SetLimit(reportParallelism)
	for i, symbol := range s.Watchlist {
		i, symbol := i, symbol
		g.Go(func() error {
			res, err := s.Service.AnalyzeTrailing(ctx, symbol, s.LookbackDays, recorder.TriggerSchedule)
			if err != nil {
				s.logger.Error("report analysis failed", zap.String("symbol", symbol), zap.Error(err))
			}
			entries[i] = notifier.ReportEntry{Symbol: symbol, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	s.trySend(notifier.FormatWatchlistReport(entries, s.now()))
	return entries
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Group chats append the bot name: /analyze@StockLensBot.
	name := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])

	switch name {
	case "/analyze":
		if len(fields) != 2 {
			return "Usage: /analyze SYMBOL"
		}
		return s.analyzeCommand(ctx, fields[1])
	case "/watchlist":
		return notifier.FormatWatchlist(s.Watchlist)
	case "/report":
		s.RunReportNow()
		return ""
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) analyzeCommand(ctx context.Context, symbol string) string {
	res, err := s.Service.AnalyzeTrailing(ctx, symbol, commandLookbackDays, recorder.TriggerCommand)
	switch {
	case err == nil:
		return notifier.FormatAnalysis(res)
	case errors.Is(err, collector.ErrInvalidSymbol):
		return fmt.Sprintf("❌ Invalid symbol: %s", symbol)
	case errors.Is(err, collector.ErrNoData):
		return fmt.Sprintf("❌ No data found for %s", strings.ToUpper(symbol))
	}
	if code, ok := analytics.CodeOf(err); ok {
		return fmt.Sprintf("❌ Cannot analyze %s (%s)", strings.ToUpper(symbol), code)
	}
	s.logger.Error("analyze command failed", zap.String("symbol", symbol), zap.Error(err))
	return fmt.Sprintf("❌ Analysis of %s failed, try again later", strings.ToUpper(symbol))
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil || !s.Notifier.Enabled() {
		s.logger.Debug("notifier disabled, report not sent")
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.logger.Error("send notification failed", zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}

package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"StockLens/internal/api"
	"StockLens/internal/notifier"
	"StockLens/internal/scheduler"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the watchlist scheduler and the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	logger.Info("StockLens starting")

	svc, rec, err := a.newService()
	if err != nil {
		return err
	}
	defer rec.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, "", cfg.Proxy, logger)

	sched := scheduler.NewScheduler(ctx, svc, tn, cfg.Schedule.Watchlist, cfg.Schedule.LookbackDays, logger)
	if len(cfg.Schedule.Watchlist) > 0 {
		if err := sched.Register(cfg.Schedule.ReportCron); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	// Background work must drain before sched.Stop and rec.Close.
	var polling sync.WaitGroup
	defer func() {
		cancel()
		polling.Wait()
	}()

	if tn.Enabled() {
		polling.Add(1)
		go func() {
			defer polling.Done()
			tn.StartPolling(ctx, sched.HandleCommand)
		}()
		logger.Info("telegram polling started")
	} else {
		logger.Info("telegram not configured, notifications disabled")
	}

	if cfg.Schedule.RunOnStart {
		logger.Info("RUN_ON_START enabled, running watchlist report now")
		sched.RunReportAsync()
	}

	srv := api.NewServer(api.ServerConfig{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, api.NewHandler(svc, logger).Routes())

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping")
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "http server")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}
	logger.Info("StockLens stopped")
	return nil
}

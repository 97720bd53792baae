package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"protaskinate/internal/api"
	"protaskinate/internal/bot"
	"protaskinate/internal/config"
	"protaskinate/internal/recurrence"
	"protaskinate/internal/service"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, the recurrence dispatcher and the Telegram bot",
		Long: `Start the HTTP API and background workers.

The Telegram bot starts only when TELEGRAM_TOKEN is set.

Examples:
  protaskinate serve
  protaskinate serve --addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	return cmd
}

func runServe(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	go func() {
		if err := a.dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[error] dispatcher stopped: %v", err)
		}
	}()

	loc, _ := recurrence.Location(cfg.FallbackTimeZone)
	scheduler := service.NewSchedulerService(loc)
	if _, err := scheduler.ScheduleInterval(cfg.TriggerSweep, func() {
		jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if n, err := a.dispatcher.Drain(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[error] trigger sweep: %v", err)
		} else if n > 0 {
			log.Printf("[info] trigger sweep handled %d events", n)
		}
	}); err != nil {
		return err
	}

	if cfg.TelegramToken != "" {
		telegramBot, err := bot.New(cfg.TelegramToken, bot.Services{
			Users:      a.users,
			Tasks:      a.tasks,
			Boards:     a.boards,
			Categories: a.categories,
			Reminders:  a.reminders,
		}, cfg.FallbackTimeZone)
		if err != nil {
			return err
		}
		if _, err := scheduler.ScheduleInterval(cfg.ReportInterval, func() {
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[error] report: %v", err)
			}
		}); err != nil {
			return err
		}
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[error] bot stopped with error: %v", err)
			}
		}()
	} else {
		log.Println("[info] TELEGRAM_TOKEN not set, bot disabled")
	}

	scheduler.Start()
	defer scheduler.Stop()

	server := api.NewServer(api.Services{
		Users:      a.users,
		Tasks:      a.tasks,
		Boards:     a.boards,
		Categories: a.categories,
		Hub:        a.hub,
	}, a.tokens, cfg.FallbackTimeZone)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[info] http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Catch up on writes recorded before a restart.
	if _, err := a.dispatcher.Drain(ctx); err != nil {
		log.Printf("[warn] initial trigger sweep: %v", err)
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[warn] http shutdown: %v", err)
	}
	log.Println("[info] shutdown complete")
	return nil
}

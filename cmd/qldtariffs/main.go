package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"

	"github.com/qldtariffs/qldtariffs/pkg/log"
	"github.com/qldtariffs/qldtariffs/pkg/publisher"
	"github.com/qldtariffs/qldtariffs/pkg/server"
	"github.com/qldtariffs/qldtariffs/pkg/storage"
	"github.com/qldtariffs/qldtariffs/pkg/tariff"
)

func main() {
	// init packages
	t := tariff.Configured()
	s := storage.Configured()
	p := publisher.Configured()

	// init server
	srv := server.Configured(t, s, p)

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}
	log.SetDefaultLogLevel(level)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// if initialization inside lflag.Do failed we would have panicked already
	defer func() {
		p.Close()
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", slog.Any("error", err))
		}
	}()

	// Run blocks until the context is canceled or the server fails
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}

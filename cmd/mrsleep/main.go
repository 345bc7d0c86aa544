package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/sandeepkv93/mrsleep/internal/platform"
	"github.com/sandeepkv93/mrsleep/internal/reconciler"
	"github.com/sandeepkv93/mrsleep/internal/storage"
	"github.com/sandeepkv93/mrsleep/internal/update"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mrsleep failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := update.RuntimeConfigFromEnv(update.DefaultRuntimeConfig())

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log := zerolog.New(logFile).With().Timestamp().Logger()

	store, err := storage.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open alarm store: %w", err)
	}
	defer store.Close()

	ringer := platform.NewRinger(cfg.RingerBuffer)
	ringer.Start()
	defer ringer.Stop()

	svc := platform.NewLocalService(ringer, nil, log)
	rec := reconciler.New(svc, store, log)

	model := update.NewModelWithConfig(rec, svc, ringer.C(), cfg)
	program := tea.NewProgram(model, tea.WithReportFocus())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fwarner/kidlock/internal/agent"
	"github.com/fwarner/kidlock/internal/config"
	"github.com/fwarner/kidlock/internal/enforcer"
	"github.com/fwarner/kidlock/internal/ipc"
	"github.com/fwarner/kidlock/internal/notify"
	"github.com/fwarner/kidlock/internal/platform"
	"github.com/fwarner/kidlock/internal/requestdir"
	"github.com/fwarner/kidlock/internal/state"
	"github.com/fwarner/kidlock/internal/tamper"
)

const defaultConfigPath = "/etc/kidlock/config.toml"

func main() {
	configPath := flag.String("c", defaultConfigPath, "path to config file")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if len(cfg.Users) == 0 {
		slog.Error("no users configured, add a [users.<name>] section")
		os.Exit(1)
	}

	loc := time.Local
	if cfg.Agent.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Agent.Timezone)
		if err != nil {
			slog.Error("invalid timezone", "timezone", cfg.Agent.Timezone, "error", err)
			os.Exit(1)
		}
	}

	logind, err := platform.NewLogind()
	if err != nil {
		slog.Error("failed to connect to logind", "error", err)
		os.Exit(1)
	}
	defer logind.Close()

	store := state.NewStore(cfg.Agent.StateFile)
	enf := enforcer.New(store, logind, loc)

	spool, err := requestdir.New(cfg.Agent.RequestDir)
	if err != nil {
		slog.Error("failed to prepare request dir", "dir", cfg.Agent.RequestDir, "error", err)
		os.Exit(1)
	}

	detector := tamper.New(time.Duration(cfg.Agent.TamperThresholdSeconds) * time.Second)
	service := ipc.NewService()
	a := agent.New(cfg, enf, logind, notify.NewDesktop(logind), service, detector, spool)
	service.Attach(a)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := service.Serve(ctx); err != nil {
			slog.Error("ipc service error", "error", err)
			cancel()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.Run(ctx); err != nil {
			slog.Error("agent error", "error", err)
		}
	}()

	wg.Wait()
	slog.Info("shutdown complete")
}

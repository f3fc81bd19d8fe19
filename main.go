package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/nstehr/rampart/rampart-core/agent"
	"github.com/nstehr/rampart/rampart-core/ipc"
	"github.com/nstehr/rampart/rampart-core/rules"
)

const banner = `
██████╗  █████╗ ███╗   ███╗██████╗  █████╗ ██████╗ ████████╗
██╔══██╗██╔══██╗████╗ ████║██╔══██╗██╔══██╗██╔══██╗╚══██╔══╝
██████╔╝███████║██╔████╔██║██████╔╝███████║██████╔╝   ██║
██╔══██╗██╔══██║██║╚██╔╝██║██╔═══╝ ██╔══██║██╔══██╗   ██║
██║  ██║██║  ██║██║ ╚═╝ ██║██║     ██║  ██║██║  ██║   ██║
╚═╝  ╚═╝╚═╝  ╚═╝╚═╝     ╚═╝╚═╝     ╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝

Doctrine-Driven Tower Defense`

func main() {
	doctrinePath := flag.String("doctrine", "", "path to a doctrine YAML file")
	seed := flag.Int64("seed", 1, "seed for attack-site tie-breaking")
	workers := flag.Int("workers", runtime.NumCPU(), "concurrent attack simulations")
	budget := flag.Duration("budget", agent.DefaultBudget, "per-turn computation budget")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "bad -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	// Stdout belongs to the game engine.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	fmt.Fprintln(os.Stderr, banner)

	doctrine := rules.DefaultDoctrine()
	if *doctrinePath != "" {
		d, err := rules.LoadDoctrine(*doctrinePath)
		if err != nil {
			slog.Error("failed to load doctrine", "path", *doctrinePath, "error", err)
			os.Exit(1)
		}
		doctrine = d
	}
	slog.Info("starting rampart", "doctrine", doctrine.Name, "workers", *workers, "budget", *budget)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn := ipc.NewConnection(os.Stdin, os.Stdout, nil)
	a := agent.New(ctx, conn, agent.Options{
		Doctrine: doctrine,
		Seed:     *seed,
		Workers:  *workers,
		Budget:   *budget,
	})
	a.Register()

	if *doctrinePath != "" {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go reloadOnHangup(ctx, hup, *doctrinePath, a)
	}

	if err := conn.ReadLoop(ctx); err != nil {
		slog.Error("connection closed", "error", err)
		stop()
		os.Exit(1)
	}
	slog.Info("shutting down")
}

// reloadOnHangup re-reads the doctrine file on every SIGHUP.
func reloadOnHangup(ctx context.Context, hup <-chan os.Signal, path string, a *agent.Agent) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			d, err := rules.LoadDoctrine(path)
			if err != nil {
				slog.Error("doctrine reload failed", "path", path, "error", err)
				continue
			}
			if err := a.Reload(d); err != nil {
				slog.Error("doctrine reload failed", "path", path, "error", err)
			}
		}
	}
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/afero"

	"github.com/a3tai/formharvest/internal/config"
	"github.com/a3tai/formharvest/internal/harvest"
	"github.com/a3tai/formharvest/internal/logger"
	"github.com/a3tai/formharvest/internal/mcp"
	"github.com/a3tai/formharvest/internal/sink"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// pauser is the part of the controller driven from the keyboard
type pauser interface {
	Pause()
	Resume()
	Paused() bool
}

// setupLogging builds the logger. Output always goes to stderr so that
// stdout stays free for the MCP protocol.
func setupLogging(cfg *config.Config) logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		Output:     os.Stderr,
		JSON:       cfg.LogJSON,
		TimeFormat: "15:04:05",
	})
}

// isVersionRequest reports whether the arguments ask for the version
func isVersionRequest(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// readControls applies keyboard commands until input ends or ctx is done:
// p pauses, r resumes, q quits.
func readControls(ctx context.Context, in io.Reader, ctrl pauser, quit func(), log logger.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "p":
			ctrl.Pause()
			log.Info("paused, press r to resume")
		case "r":
			ctrl.Resume()
			log.Info("resumed")
		case "q":
			log.Info("quitting after the current document")
			quit()
			return
		case "":
		default:
			log.Warn("unknown command, use p (pause), r (resume) or q (quit)")
		}
	}
}

// runMCPMode serves the control tools while watching the source folder
func runMCPMode(ctx context.Context, cfg *config.Config, runner *harvest.Runner, log logger.Logger) error {
	server, err := mcp.NewServer(cfg, runner, log)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- runner.Watch(ctx)
	}()

	serveErr := server.Run(ctx)
	cancel()

	return errors.Join(serveErr, <-watchErr)
}

func main() {
	if isVersionRequest(os.Args[1:]) {
		printVersion()
		return
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	log := setupLogging(cfg)
	log.Debug("starting", "config", cfg.String())

	fs := afero.NewOsFs()
	table, err := sink.Open(fs, cfg.OutputPath(), cfg.Keywords)
	if err != nil {
		log.Error("failed to open output table", "path", cfg.OutputPath(), "error", err)
		os.Exit(1)
	}

	runner, err := harvest.NewRunner(fs, cfg, table, log)
	if err != nil {
		log.Error("failed to create runner", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case cfg.IsMCPMode():
		err = runMCPMode(ctx, cfg, runner, log)
	case cfg.IsWatching():
		log.Info("commands: p pause, r resume, q quit")
		go readControls(ctx, os.Stdin, runner.Controller(), stop, log)
		err = runner.Run(ctx)
	default:
		err = runner.Run(ctx)
	}

	status := runner.Status()
	if err != nil {
		log.Error("stopped with error", "error", err, "rows", status.Rows)
		stop()
		os.Exit(1)
	}
	log.Info("done", "processed", status.Processed, "failed", status.Failed, "output", table.Path())
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("formharvest\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}

// Command anyclick is the capture daemon. It drives Chrome pages,
// injects the capture agent, and serves a local control API.
//
// Usage:
//
//	anyclick -config anyclick.yaml          # run pages from YAML config
//	anyclick -url https://app.example.com   # quick single-page session
//	anyclick -mcp                           # also expose MCP tools on stdio
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/anyclick/anyclick"
	"github.com/anyclick/anyclick/internal/control"
)

func main() {
	configPath := flag.String("config", "", "path to anyclick.yaml config file")
	singleURL := flag.String("url", "", "attach a single URL (stdout sink)")
	mcpStdio := flag.Bool("mcp", false, "expose MCP tools on stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *singleURL, *mcpStdio); err != nil {
		logger.Error("anyclick: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, singleURL string, mcpStdio bool) error {
	var cfg *anyclick.Config
	switch {
	case singleURL != "":
		cfg = defaultConfig()
		cfg.Pages = []anyclick.PageConfig{{URL: singleURL}}
	case configPath != "":
		var err error
		cfg, err = anyclick.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: anyclick -config <file> | -url <url>")
		os.Exit(1)
	}

	sinks, err := anyclick.SinksFromConfig(cfg.Sinks, nil, logger)
	if err != nil {
		return err
	}
	if len(sinks) == 0 {
		sinks = append(sinks, anyclick.NewStdoutSink(nil))
	}

	session := anyclick.New(cfg, logger, sinks...)
	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer session.Stop()

	if cfg.Control.Addr != "" {
		ctl := control.NewServer(session, control.Config{
			Addr:      cfg.Control.Addr,
			TokenHash: cfg.Control.TokenHash,
			Logger:    logger,
		})
		go func() {
			if err := ctl.ListenAndServe(); err != nil {
				logger.Error("anyclick: control server", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			ctl.Shutdown(shutdownCtx)
		}()
	}

	if mcpStdio {
		srv := mcp.NewServer(&mcp.Implementation{Name: "anyclick", Version: "1.0.0"}, nil)
		session.RegisterMCP(srv)
		return srv.Run(ctx, &mcp.StdioTransport{})
	}

	<-ctx.Done()
	return nil
}

func defaultConfig() *anyclick.Config {
	cfg := &anyclick.Config{
		Browser: anyclick.BrowserConfig{
			Stealth:         "headless",
			MemoryLimit:     1 << 30,
			RecycleInterval: 4 * time.Hour,
		},
		Menu: anyclick.MenuConfig{
			Theme:       "light",
			TouchWindow: 500 * time.Millisecond,
		},
	}
	return cfg
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/baozi-order/internal/assistant"
	"github.com/dshills/baozi-order/internal/completion"
	"github.com/dshills/baozi-order/internal/config"
	"github.com/dshills/baozi-order/internal/httpapi"
	"github.com/dshills/baozi-order/internal/logging"
	"github.com/dshills/baozi-order/internal/mcp"
	"github.com/dshills/baozi-order/internal/menu"
	"github.com/dshills/baozi-order/internal/session"
	"github.com/dshills/baozi-order/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// Run modes
const (
	modeChat = "chat"
	modeMCP  = "mcp"
	modeHTTP = "http"
)

const (
	replyPause      = 500 * time.Millisecond
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersion(os.Stdout)
		os.Exit(0)
	}

	fs := flag.NewFlagSet("baozi", flag.ExitOnError)
	mode := fs.String("mode", modeChat, "run mode: chat, mcp or http")
	envFile := fs.String("env", "key.env", "dotenv file with DEEPSEEK_API_KEY")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误：%v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			fmt.Fprintf(os.Stderr, "错误：请在 %s 文件中设置 %s\n", *envFile, config.EnvAPIKey)
		} else {
			fmt.Fprintf(os.Stderr, "错误：%v\n", err)
		}
		os.Exit(1)
	}

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *mode, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "错误：%v\n", err)
		os.Exit(1)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Baozi Order Assistant\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Build Mode: %s\n", storage.BuildMode)
	fmt.Fprintf(w, "SQLite Driver: %s\n", storage.DriverName)
}

// run wires the application and blocks in the selected mode
func run(ctx context.Context, mode string, cfg *config.Config) error {
	switch mode {
	case modeChat, modeMCP, modeHTTP:
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	logger, err := newLogger(mode, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return err
	}
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	client, err := completion.New(cfg.Completion())
	if err != nil {
		return fmt.Errorf("failed to initialize completion client: %w", err)
	}
	defer func() { _ = client.Close() }()

	registry, err := session.NewRegistry(session.Config{
		Client:   client,
		Menu:     menu.Default(),
		Archiver: store,
		Limit:    cfg.SessionLimit,
		Logger:   logging.Named(logger, "session"),
		Options:  []assistant.Option{assistant.WithParams(cfg.Params())},
	})
	if err != nil {
		return err
	}

	logger.Info("starting",
		zap.String("version", version),
		zap.String("mode", mode),
		zap.String("provider", client.Provider()),
		zap.String("model", cfg.Model),
		zap.String("db_path", dbPath),
		zap.String("build_mode", storage.BuildMode))

	switch mode {
	case modeMCP:
		server, err := mcp.NewServer(registry, store, logging.Named(logger, "mcp"))
		if err != nil {
			return fmt.Errorf("failed to create MCP server: %w", err)
		}
		return server.Serve(ctx)
	case modeHTTP:
		handler := httpapi.NewHandler(registry, store, logging.Named(logger, "http"))
		return serveHTTP(ctx, cfg.HTTPAddr, httpapi.NewRouter(handler), logger)
	default:
		console := NewConsole(registry, os.Stdin, os.Stdout)
		console.pause = replyPause
		return console.Run(ctx)
	}
}

// newLogger picks the encoder and default level for a run mode. The chat
// console shares its terminal with stderr, so it logs plain text and only
// warnings unless a level is configured.
func newLogger(mode, level string) (*zap.Logger, error) {
	if mode == modeChat {
		if level == "" {
			level = "warn"
		}
		return logging.NewConsole(level)
	}
	if level == "" {
		level = "info"
	}
	return logging.New(level)
}

// serveHTTP runs the server until ctx is cancelled, then shuts it down
func serveHTTP(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

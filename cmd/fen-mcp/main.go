package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/chessboard-fen-mcp/internal/config"
	"github.com/ironsheep/chessboard-fen-mcp/internal/server"
	"github.com/ironsheep/chessboard-fen-mcp/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("chessboard-fen-mcp - MCP server turning chessboard screenshots into FEN")
	fmt.Println()
	fmt.Println("Usage: fen-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c <file>  Load settings from a JSON config file")
	fmt.Println("  --version, -v        Print version information")
	fmt.Println("  --help, -h           Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  FEN_MCP_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println("  FEN_MCP_CONFIG=<file>      Config file (overridden by --config)")
	fmt.Println("  FEN_MCP_STORE=<file>       Position history database (overrides store.path)")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	configPath := os.Getenv("FEN_MCP_CONFIG")

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Printf("chessboard-fen-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config needs a file argument")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown argument %q\n\n", args[i])
			usage()
			os.Exit(2)
		}
	}

	logger, err := newLogger(os.Getenv("FEN_MCP_LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger, configPath); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(logger *zap.Logger, configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if path := os.Getenv("FEN_MCP_STORE"); path != "" {
		cfg.Store.Path = path
	}

	logger.Debug("starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit),
		zap.String("config", configPath),
		zap.String("store", cfg.Store.Path))

	var history *store.History
	if cfg.Store.Path != "" {
		h, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer h.Close()
		history = h
	}

	server.Version = Version
	srv := server.New(cfg, logger, history)
	return srv.Run()
}

// newLogger writes JSON logs to stderr; stdout carries the protocol.
func newLogger(level string) (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	logConfig.OutputPaths = []string{"stderr"}
	logConfig.ErrorOutputPaths = []string{"stderr"}
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch level {
	case "debug":
		logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		logConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		logConfig.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		logConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return logConfig.Build()
}

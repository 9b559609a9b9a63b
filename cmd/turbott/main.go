// Package main is the Turbott CLI entry point.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tarunagarwal/turbott/internal/config"
	"github.com/tarunagarwal/turbott/internal/engine"
	"github.com/tarunagarwal/turbott/internal/ingest"
	"github.com/tarunagarwal/turbott/internal/keyword"
	"github.com/tarunagarwal/turbott/internal/provider"
	"github.com/tarunagarwal/turbott/internal/server"
	"github.com/tarunagarwal/turbott/internal/session"
	"github.com/tarunagarwal/turbott/internal/vectorstore"
	"github.com/tarunagarwal/turbott/internal/watcher"
	"github.com/tarunagarwal/turbott/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/turbott/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. When no config file exists at all, built-in defaults apply.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, nil
		}
	}
	return config.Load(path)
}

func main() {
	// Pick up OPENAI_API_KEY from a local .env when present.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "chat":
		runChat()
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "ask":
		runAsk()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("turbott version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Store   *vectorstore.Store
	Keyword *keyword.Index
	Session *session.Session
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	client, err := provider.NewOpenAIClient(provider.OpenAIConfig{
		Model:          cfg.Chat.Model,
		EmbeddingModel: cfg.Chat.EmbeddingModel,
		Temperature:    cfg.Chat.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider: %w", err)
	}

	store, err := vectorstore.Open(cfg.Storage.PersistDir, client, vectorstore.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	kwIdx, err := keyword.Open(cfg.Storage.KeywordIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	ingestor, err := ingest.NewIngestor(
		cfg.Ingest.ChunkSize,
		cfg.Ingest.ChunkOverlap,
		cfg.Ingest.Extensions,
		ingest.WithLogger(logger),
	)
	if err != nil {
		_ = store.Close()
		_ = kwIdx.Close()
		return nil, fmt.Errorf("failed to initialize ingestor: %w", err)
	}

	eng := engine.New(store, client, cfg.Chat.TopK, engine.WithLogger(logger))
	sess := session.New(ingestor, store, eng,
		session.WithLogger(logger),
		session.WithKeywordIndex(kwIdx),
	)

	return &Components{Store: store, Keyword: kwIdx, Session: sess}, nil
}

// setup parses the common -config/-debug flags, loads config, and builds the
// component graph. Subcommands that take positional arguments read them from
// the returned flag set.
func setup(name string) (*config.Config, *zap.Logger, *Components, *flag.FlagSet) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger, components, fs
}

func runChat() {
	_, logger, components, _ := setup("chat")
	defer logger.Sync()
	defer components.Close()
	sess := components.Session

	fmt.Printf("turbott %s — ask questions about your documents.\n", version)
	fmt.Println("Commands: /load <path>, /history, /clear, /export <path>, /quit")

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := runChatCommand(ctx, sess, line); quit {
				return
			}
			continue
		}
		turn, err := sess.Ask(ctx, line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Println(turn.Answer)
		for i, src := range turn.Sources {
			fmt.Printf("  [%d] %s\n", i+1, utils.Truncate(src.Content, 120))
		}
	}
}

// runChatCommand executes a slash command. Returns true when the REPL should exit.
func runChatCommand(ctx context.Context, sess *session.Session, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/load":
		if arg == "" {
			fmt.Println("Usage: /load <file-or-directory>")
			return false
		}
		n, err := sess.LoadDocuments(ctx, arg)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("Indexed %d chunk(s) from %s\n", n, arg)
	case "/history":
		history := sess.History()
		if len(history) == 0 {
			fmt.Println("No conversation yet.")
			return false
		}
		for _, turn := range history {
			fmt.Printf("[%s] Q: %s\n", turn.Timestamp.Format(time.RFC3339), turn.Question)
			fmt.Printf("           A: %s\n", turn.Answer)
		}
	case "/clear":
		sess.ClearConversation()
		fmt.Println("Conversation cleared. Indexed documents are kept.")
	case "/export":
		if arg == "" {
			fmt.Println("Usage: /export <path>")
			return false
		}
		if err := sess.ExportConversation(arg); err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("Conversation exported to %s\n", arg)
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
	}
	return false
}

func runServer() {
	cfg, logger, components, _ := setup("server")
	defer logger.Sync()
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		sess := components.Session
		watch := watcher.New(
			cfg.Watch.Directories,
			cfg.Ingest.Extensions,
			func(path string) {
				if _, err := sess.LoadDocuments(context.Background(), path); err != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
		)
		if err := watch.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watch.Stop()
	}

	srv := server.NewServer(components.Session, components.Keyword, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	_, logger, components, fs := setup("ingest")
	defer logger.Sync()
	defer components.Close()

	if fs.NArg() < 1 {
		fmt.Println("Usage: turbott ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	n, err := components.Session.LoadDocuments(context.Background(), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed %d chunk(s) from %s\n", n, path)
}

func runAsk() {
	_, logger, components, fs := setup("ask")
	defer logger.Sync()
	defer components.Close()

	if fs.NArg() < 1 {
		fmt.Println("Usage: turbott ask [flags] <question>")
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	turn, err := components.Session.Ask(context.Background(), question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(turn.Answer)
	for i, src := range turn.Sources {
		fmt.Printf("  [%d] %s\n", i+1, utils.Truncate(src.Content, 120))
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 10, "number of results")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: turbott search [flags] <terms>")
		os.Exit(1)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// Keyword search needs no embedding provider; open the index directly.
	kwIdx, err := keyword.Open(cfg.Storage.KeywordIndexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open keyword index: %v\n", err)
		os.Exit(1)
	}
	defer kwIdx.Close()

	results, err := kwIdx.Search(context.Background(), query, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return
	}
	for i, res := range results {
		fmt.Printf("%d. [%.3f] %s\n", i+1, res.Score, utils.Truncate(res.Content, 160))
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	kwCount, _ := components.Keyword.Count()
	fmt.Printf("chunks:              %d\n", components.Store.Count())
	fmt.Printf("keyword_documents:   %d\n", kwCount)
	fmt.Printf("embedding_dims:      %d\n", components.Store.Dimensions())
	fmt.Printf("model:               %s\n", cfg.Chat.Model)
	fmt.Printf("embedding_model:     %s\n", cfg.Chat.EmbeddingModel)
	fmt.Printf("top_k:               %d\n", cfg.Chat.TopK)
	fmt.Printf("chunk_size:          %d\n", cfg.Ingest.ChunkSize)
	fmt.Printf("chunk_overlap:       %d\n", cfg.Ingest.ChunkOverlap)
	fmt.Printf("persist_dir:         %s\n", cfg.Storage.PersistDir)
	fmt.Printf("keyword_index_path:  %s\n", cfg.Storage.KeywordIndexPath)
}

func printUsage() {
	fmt.Println(`turbott - retrieval-augmented assistant for your documents

Usage:
  turbott chat [flags]              Interactive question answering
  turbott server [flags]            Start the HTTP API server
  turbott ingest [flags] <path>     Ingest a file or directory
  turbott ask [flags] <question>    Ask a single question
  turbott search [flags] <terms>    Keyword search over indexed chunks
  turbott status [flags]            Show index and configuration status
  turbott version                   Show version
  turbott help                      Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/turbott/config.yaml,
                     falls back to ./config.yaml, then built-in defaults)
  --debug            Enable debug logging

Search Flags:
  --limit int        Number of results (default: 10)

Chat commands:
  /load <path>       Ingest a file or directory
  /history           Show the conversation so far
  /clear             Clear the conversation (keeps indexed documents)
  /export <path>     Write the conversation to a text file
  /quit              Exit

Environment:
  OPENAI_API_KEY     Required for chat, server, ingest, ask, and status.
                     Loaded from .env in the current directory when present.

Examples:
  turbott ingest ./docs
  turbott ask "What does the maintenance manual say about filters?"
  turbott chat
  turbott search reactor coolant
  turbott server --debug`)
}

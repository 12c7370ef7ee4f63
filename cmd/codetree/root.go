package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/codetree/internal/config"
	"github.com/dshills/codetree/internal/indexer"
	"github.com/dshills/codetree/internal/logging"
	"github.com/dshills/codetree/internal/parser"
	"github.com/dshills/codetree/internal/storage"
)

var (
	configFile    string
	logLevelFlag  string
	logFormatFlag string
	cacheDirFlag  string
	engineFlag    string
	loadedConfig  *config.Config
	loadedLogger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "codetree",
	Short: "codetree - C function indexer and specimen sampler",
	Long: `codetree extracts every function definition from a C source tree, caches the
resulting table, and samples random functions together with the source of the
functions they call.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("codetree version {{.Version}} (built %s, sqlite %s/%s)\n",
		buildTime, storage.BuildMode, storage.DriverName))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default: ./codetree.yaml or ~/.codetree/codetree.yaml)")
	flags.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&logFormatFlag, "log-format", "", "Log format: text, json")
	flags.StringVar(&cacheDirFlag, "cache-dir", "", "Directory holding cached function tables")
	flags.StringVar(&engineFlag, "engine", "", "Extraction engine: regex, treesitter")
}

// loadSettings reads configuration and applies command-line overrides
func loadSettings(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.Log.Format = logFormatFlag
	}
	if cacheDirFlag != "" {
		cfg.Cache.Dir = cacheDirFlag
	}
	if engineFlag != "" {
		cfg.Parser.Engine = engineFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	loadedConfig = cfg
	// stdout carries command output and, for serve, the MCP protocol
	loadedLogger = logging.New(cmd.ErrOrStderr(), logging.LevelFromString(cfg.Log.Level), logging.Format(cfg.Log.Format))
	return nil
}

// app bundles the components built from configuration
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	parser  parser.Parser
	cache   storage.Cache
	indexer *indexer.Indexer
}

// newApp wires the parser, cache and indexer. withMemory layers an LRU over
// the persistent cache for long-running commands.
func newApp(withMemory bool) (*app, error) {
	cfg, logger := loadedConfig, loadedLogger
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger = logging.OrDiscard(logger)

	p, err := parser.New(parser.Options{
		Engine:       parser.Engine(cfg.Parser.Engine),
		MatchTimeout: cfg.Parser.MatchTimeout,
	})
	if err != nil {
		return nil, err
	}

	cache, err := storage.New(storage.Backend(cfg.Cache.Backend), cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}
	if withMemory {
		mem, err := storage.NewMemoryCache(cache, cfg.Cache.MemoryEntries)
		if err != nil {
			return nil, err
		}
		cache = mem
	}

	keyFunc := storage.KeyFunc(storage.PathKey)
	if strings.EqualFold(cfg.Cache.Key, "fingerprint") {
		keyFunc = indexer.FingerprintKey(cfg.Scan.Extensions)
	}

	scanner := indexer.NewScanner(p, &indexer.ScannerConfig{
		Extensions: cfg.Scan.Extensions,
		Logger:     logger,
	})

	return &app{
		cfg:    cfg,
		logger: logger,
		parser: p,
		cache:  cache,
		indexer: indexer.New(scanner, cache, &indexer.Config{
			KeyFunc: keyFunc,
			Logger:  logger,
		}),
	}, nil
}

func (a *app) Close() error {
	return a.cache.Close()
}

// Package cli implements the bnsearch command-line interface.
package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bnsearch/pkg/catalogue"
	"github.com/matzehuels/bnsearch/pkg/config"
	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/store"
	"github.com/matzehuels/bnsearch/pkg/store/mongo"
	"github.com/matzehuels/bnsearch/pkg/store/redis"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "bnsearch"

	// storedArg selects the best stored result where an ordering or
	// optimum is expected.
	storedArg = "stored"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Paths
// =============================================================================

// dataDir returns the data directory using XDG standard
// (~/.local/share/bnsearch/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// resultsDir returns the file store directory for cfg.
func resultsDir(cfg config.Store) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "results"), nil
}

// =============================================================================
// Store Factory
// =============================================================================

// openStore opens the configured result store, instrumented for the
// observability hooks.
func (c *CLI) openStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	backend := cfg.Backend
	var (
		s   store.Store
		err error
	)
	switch backend {
	case "", "none":
		return store.NewNullStore(), nil
	case "file":
		dir, derr := resultsDir(cfg)
		if derr != nil {
			c.Logger.Warn("No data directory; results will not be stored", "err", derr)
			return store.NewNullStore(), nil
		}
		s, err = store.NewFileStore(dir)
	case "redis":
		s, err = redis.New(ctx, cfg.Redis)
	case "mongo":
		s, err = mongo.New(ctx, cfg.Mongo)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", backend)
	}
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("Opened result store", "backend", backend)
	return store.Instrument(s, backend), nil
}

// loadConfig returns the configuration at path, or the defaults when path
// is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// =============================================================================
// Instance Helpers
// =============================================================================

// instanceName is the display name of an instance file.
func instanceName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// loadInstance reads the instance at path behind a spinner.
func (c *CLI) loadInstance(ctx context.Context, path string) (*catalogue.Catalogue, error) {
	prog := newProgress(c.Logger)
	sp := newSpinner(ctx, "Loading "+filepath.Base(path)+"...")
	sp.Start()
	cat, err := catalogue.ReadFile(path)
	sp.Stop()
	if err != nil {
		return nil, err
	}
	prog.done("Loaded " + instanceName(path))
	c.Logger.Debug("Instance", "variables", cat.N(), "candidates", cat.Candidates(), "key", cat.Hash())
	return cat, nil
}

// resolveOrdering parses arg as an ordering of cat, or fetches the best
// stored ordering when arg is "stored".
func resolveOrdering(ctx context.Context, st store.Store, cat *catalogue.Catalogue, arg string) (order.Ordering, error) {
	if arg != storedArg {
		o, err := order.Parse(arg)
		if err != nil {
			return nil, err
		}
		if len(o) != cat.N() {
			return nil, errors.New(errors.ErrCodeInvalidOrdering, "ordering has %d variables, instance has %d", len(o), cat.N())
		}
		return o, nil
	}
	rec, err := st.Get(ctx, cat.Hash())
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.New(errors.ErrCodeNotFound, "no stored result for this instance")
		}
		return nil, err
	}
	o := order.Ordering(rec.Ordering)
	if err := o.Validate(); err != nil || len(o) != cat.N() {
		return nil, errors.New(errors.ErrCodeInvalidOrdering, "stored ordering does not fit this instance")
	}
	return o, nil
}

// storeFlags selects a result store for commands that only read or manage
// stored results.
type storeFlags struct {
	config  string
	backend string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "configuration file holding store settings")
	cmd.Flags().StringVar(&f.backend, "store", "", "result store backend: none, file, redis, mongo")
}

// resolve returns the configured store settings with the --store override.
func (f *storeFlags) resolve() (config.Store, error) {
	cfg, err := loadConfig(f.config)
	if err != nil {
		return config.Store{}, err
	}
	if f.backend != "" {
		cfg.Store.Backend = f.backend
		if err := cfg.Validate(); err != nil {
			return config.Store{}, err
		}
	}
	return cfg.Store, nil
}

package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jcdickinson/oxidoc/internal/build"
	"github.com/jcdickinson/oxidoc/internal/config"
	"github.com/jcdickinson/oxidoc/internal/db"
	"github.com/jcdickinson/oxidoc/internal/document"
	"github.com/spf13/cobra"
)

var (
	debug bool
	cfg   *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "oxidoc",
	Short:         "Rust documentation converter, store and MCP server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		level := cfg.Log.Level
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(cratesCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(clearCacheCmd)
}

func openIndex() (*db.DB, error) {
	index, err := db.New(config.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	return index, nil
}

func newBuilder(index *db.DB) *build.Builder {
	return build.New(build.Options{
		StoreRoot:    cfg.Store.Path,
		JSONCacheDir: config.JSONCacheDir(),
		Workers:      cfg.Convert.Workers,
		DocCacheSize: cfg.Store.DocCacheSize,
	}, index)
}

// crateInfo looks up the version a crate was last built at. The version is
// left empty when the index has no record of it.
func crateInfo(index *db.DB, name string) document.CrateInfo {
	info := document.CrateInfo{Package: document.Package{Name: name}}
	c, err := index.GetLatestCrate(name)
	if err != nil {
		slog.Warn("looking up crate version", "crate", name, "error", err)
		return info
	}
	if c != nil {
		info.Package.Version = c.Version
		if err := index.TouchCrate(c.ID); err != nil {
			slog.Debug("touching crate", "crate", name, "error", err)
		}
	}
	return info
}

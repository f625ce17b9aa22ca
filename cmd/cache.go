package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jcdickinson/oxidoc/internal/config"
	"github.com/jcdickinson/oxidoc/internal/docs"
	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache <crate>",
	Short: "Remove a crate's store, cached rustdoc JSON and search index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runClearCache,
}

func runClearCache(cmd *cobra.Command, args []string) error {
	name := args[0]

	index, err := openIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	if err := os.RemoveAll(newBuilder(index).StoreDir(name)); err != nil {
		return fmt.Errorf("removing store: %w", err)
	}

	removed, err := docs.RemoveCrateCache(config.JSONCacheDir(), name)
	if err != nil {
		slog.Warn("removing cached rustdoc JSON", "crate", name, "error", err)
	}
	slog.Debug("removed cached rustdoc JSON", "crate", name, "files", removed)

	if err := index.DeleteCrate(name); err != nil {
		return fmt.Errorf("removing index entries: %w", err)
	}
	fmt.Printf("cleared %s\n", name)
	return nil
}

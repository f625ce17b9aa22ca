package cmd

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/jcdickinson/oxidoc/internal/build"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch crate[@version] ...",
	Short: "Download rustdoc JSON from docs.rs into the local cache",
	Example: `  oxidoc fetch serde
  oxidoc fetch serde@1.0.200 tokio`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	b := newBuilder(nil)
	for _, arg := range args {
		spec := build.ParseSpec(arg)
		if spec.File != "" {
			return fmt.Errorf("%s: fetch takes crate names, not files", arg)
		}
		data, version, err := b.Fetch(cmd.Context(), spec.Name, spec.Version)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		fmt.Printf("  %s@%s: %d bytes\n", spec.Name, version, len(data))
	}
	return nil
}

var buildCmd = &cobra.Command{
	Use:   "build <crate[@version] | file.json[.zst]> ...",
	Short: "Convert rustdoc JSON into the documentation store and search index",
	Example: `  oxidoc build serde@1.0.200
  oxidoc build target/doc/mycrate.json
  oxidoc build serde tokio anyhow`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

var buildJobs int

func init() {
	buildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", runtime.GOMAXPROCS(0), "crates built at once")
}

func runBuild(cmd *cobra.Command, args []string) error {
	index, err := openIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	b := newBuilder(index)

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(buildJobs, 1))
	for _, arg := range args {
		spec := build.ParseSpec(arg)
		g.Go(func() error {
			res, err := b.Build(ctx, spec)
			if err != nil {
				return fmt.Errorf("%s: %w", spec, err)
			}
			mu.Lock()
			defer mu.Unlock()
			fmt.Printf("  %s@%s: %d records, %d modules\n", res.Name, res.Version, res.Records, res.Modules)
			return nil
		})
	}
	return g.Wait()
}

package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jcdickinson/oxidoc/internal/build"
	"github.com/jcdickinson/oxidoc/internal/db"
	"github.com/jcdickinson/oxidoc/internal/docs"
	"github.com/jcdickinson/oxidoc/internal/document"
	"github.com/jcdickinson/oxidoc/internal/markup"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <crate> <path> | get <odoc://path>",
	Short: "Show the documentation of one item",
	Example: `  oxidoc get serde serde::Serialize
  oxidoc get odoc://serde::de::Deserializer
  oxidoc get --markdown tokio tokio::spawn`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGet,
}

var (
	getMarkdown bool
	getJSON     bool
)

func init() {
	getCmd.Flags().BoolVar(&getMarkdown, "markdown", false, "print markdown source instead of rendering")
	getCmd.Flags().BoolVar(&getJSON, "json", false, "print the stored record as JSON")
}

// itemArgs splits get's arguments into a crate and an item path. A single
// argument is a path, with or without the odoc:// scheme, whose first
// segment is the crate's library name.
func itemArgs(args []string) (string, document.ModPath, error) {
	if len(args) == 2 {
		return args[0], document.ParseModPath(strings.TrimPrefix(args[1], docs.URIScheme)), nil
	}
	raw := strings.TrimPrefix(args[0], docs.URIScheme)
	if i := strings.LastIndex(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	path := document.ParseModPath(raw)
	segs := path.Segments()
	if len(segs) == 0 || segs[0] == "" {
		return "", "", fmt.Errorf("invalid item path %q", args[0])
	}
	return segs[0], path, nil
}

// resolveCrate maps a library name, as it leads an item path, to the name
// the crate was built under. The index is consulted first, then the store
// root for the name as given and with '_' mapped back to '-'.
func resolveCrate(index *db.DB, b *build.Builder, lib string) string {
	c, err := index.FindCrateByLibName(lib)
	if err != nil {
		slog.Warn("resolving crate", "lib", lib, "error", err)
	}
	if c != nil {
		return c.Name
	}
	for _, name := range []string{lib, strings.ReplaceAll(lib, "_", "-")} {
		if _, err := os.Stat(b.StoreDir(name)); err == nil {
			return name
		}
	}
	return lib
}

func runGet(cmd *cobra.Command, args []string) error {
	crate, path, err := itemArgs(args)
	if err != nil {
		return err
	}

	index, err := openIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	builder := newBuilder(index)
	if len(args) == 1 {
		crate = resolveCrate(index, builder, crate)
	}
	st, err := builder.Open(crate)
	if err != nil {
		return err
	}
	doc, err := st.LoadDoc(path)
	if err != nil {
		return err
	}

	if getJSON {
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	m := markup.Format(&doc, crateInfo(index, crate))
	if getMarkdown {
		fmt.Print(m.PlainMarkdown())
		return nil
	}
	fmt.Print(m.Render(markup.StdoutOptions()))
	return nil
}

var modulesCmd = &cobra.Command{
	Use:   "modules <crate>",
	Short: "List the module paths of a built crate",
	Args:  cobra.ExactArgs(1),
	RunE:  runModules,
}

func runModules(cmd *cobra.Command, args []string) error {
	index, err := openIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	st, err := newBuilder(index).Open(args[0])
	if err != nil {
		return err
	}

	opts := markup.StdoutOptions()
	for _, p := range st.Modpaths() {
		if opts.Color {
			fmt.Print(markup.FormatModPath(p).Render(opts))
		} else {
			fmt.Println(p)
		}
	}
	return nil
}

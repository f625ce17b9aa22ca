package cmd

import (
	"fmt"

	"github.com/jcdickinson/oxidoc/internal/docs"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search built crates by item name, path or summary",
	Example: `  oxidoc search Deserializer
  oxidoc search --crate serde --crate serde_json "from_str"
  oxidoc search --limit 5 spawn`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	searchCrates []string
	searchLimit  int
)

func init() {
	searchCmd.Flags().StringSliceVar(&searchCrates, "crate", nil, "filter to specific crates (repeatable)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "max results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	index, err := openIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	results, err := index.SearchItems(args[0], searchCrates, searchLimit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. %s%s (%s) %s@%s\n", i+1, docs.URIScheme, r.Path, r.Kind, r.Crate, r.Version)
		if r.Summary != "" {
			fmt.Printf("   %s\n", r.Summary)
		}
	}
	return nil
}

var cratesCmd = &cobra.Command{
	Use:   "crates",
	Short: "List built crates",
	RunE:  runCrates,
}

func runCrates(cmd *cobra.Command, args []string) error {
	index, err := openIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	crates, err := index.ListCrates()
	if err != nil {
		return err
	}
	if len(crates) == 0 {
		fmt.Println("no crates built")
		return nil
	}

	for _, c := range crates {
		state := "pending"
		if c.IndexedAt != nil {
			n, err := index.CountItems(c.ID)
			if err != nil {
				return err
			}
			state = fmt.Sprintf("%d items", n)
		}
		fmt.Printf("  %s@%s [%s]\n", c.Name, c.Version, state)
	}
	return nil
}

package cmd

import (
	"github.com/jcdickinson/oxidoc/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp <crate>",
	Short: "Serve a built crate's documentation as an MCP server over stdio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := openIndex()
		if err != nil {
			return err
		}
		defer index.Close()

		st, err := newBuilder(index).Open(args[0])
		if err != nil {
			return err
		}

		return mcp.NewServer(st, index, crateInfo(index, args[0])).Run()
	},
}

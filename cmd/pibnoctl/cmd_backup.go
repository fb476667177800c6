package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download every post as a JSON backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}
		data, name, err := c.Export(cmd.Context())
		if err != nil {
			return err
		}
		target := exportOutput
		if target == "" {
			target = name
		} else if info, statErr := os.Stat(target); statErr == nil && info.IsDir() {
			target = filepath.Join(target, name)
		}
		if err = os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", target, len(data))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <backup.json>",
	Short: "Restore posts from a JSON backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		out, err := c.Import(cmd.Context(), filepath.Base(args[0]), data)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Message)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file or directory")
}

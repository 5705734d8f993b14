package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize URL...",
		Short: "Print the deduplication key for each URL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}
			normalizer := rt.cfg.Normalizer()
			for _, raw := range args {
				fmt.Fprintln(cmd.OutOrStdout(), normalizer.Normalize(raw))
			}
			return nil
		},
	}
}

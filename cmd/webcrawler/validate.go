package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/ics-crawler/internal/crawler"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate URL...",
		Short: "Report whether each URL would be crawled",
		Long: `Runs each URL through the crawl-scope filter and prints one line per URL:
"valid", "invalid (<rule>)" or "error: <reason>" for URLs that cannot be parsed.
A malformed URL does not stop the remaining ones from being checked.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}
			validator := crawler.NewValidator(rt.cfg.Scope.AllowedSuffixes)
			out := cmd.OutOrStdout()
			for _, raw := range args {
				verdict, err := validator.Check(raw)
				switch {
				case err != nil:
					fmt.Fprintf(out, "%s\terror: %v\n", raw, err)
				case verdict.Valid:
					fmt.Fprintf(out, "%s\tvalid\n", raw)
				default:
					fmt.Fprintf(out, "%s\tinvalid (%s)\n", raw, verdict.Reason)
				}
			}
			return nil
		},
	}
}

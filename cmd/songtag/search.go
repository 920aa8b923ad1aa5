package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/songtag/internal/core"
)

func searchCommand() *cobra.Command {
	var (
		file  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search providers for song tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			query := strings.Join(args, " ")
			if file != "" {
				if len(args) > 0 {
					return &core.CLIError{Code: core.ExitUsage, Msg: "use either a query or --file"}
				}
				q, err := app.service.QueryFromFile(file)
				if err != nil {
					return err
				}
				query = q
			}

			ctx, cancel := withTimeout(cmd.Context(), app.timeout)
			defer cancel()
			result, err := app.service.Search(ctx, query, app.providers, limit)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "build the query from an audio file's tags")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum results per provider")
	return cmd
}

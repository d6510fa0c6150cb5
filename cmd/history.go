package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/room-booker/internal/config"
	"github.com/example/room-booker/internal/db"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded booking runs, or show one (requires DATABASE_URL)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = strconv.ParseInt(args[0], 10, 64); err != nil || id < 1 {
					return fmt.Errorf("invalid run id %q", args[0])
				}
			}
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			ctx := context.Background()
			repo, closeDB, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			if id != 0 {
				run, err := repo.Get(ctx, id)
				if db.IsNotFound(err) {
					return fmt.Errorf("run %d not found", id)
				}
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), run.Detail())
				return nil
			}

			list, err := repo.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}
			for _, r := range list {
				fmt.Fprintln(cmd.OutOrStdout(), r.Describe())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to show")
	return cmd
}

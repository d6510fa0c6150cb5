package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/room-booker/internal/config"
	"github.com/example/room-booker/internal/rooms"
)

func newRoomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List bookable rooms and durations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tROOM")
			for _, r := range cfg.Catalog().All() {
				mark := ""
				if r.Name == rooms.DefaultRoom {
					mark = " (default)"
				}
				fmt.Fprintf(tw, "%d\t%s%s\n", r.ID, r.Name, mark)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\ndurations: %s (default %s)\n", strings.Join(rooms.Durations(), ", "), rooms.DefaultDuration)
			return nil
		},
	}
}

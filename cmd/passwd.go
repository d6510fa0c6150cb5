package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/room-booker/internal/auth"
)

func newPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd [password]",
		Short: "Print a bcrypt hash for UI_PASSWORD_HASH (reads stdin without an argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pw string
			if len(args) == 1 {
				pw = args[0]
			} else {
				var err error
				if pw, err = readLine(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}
			if pw == "" {
				return fmt.Errorf("empty password")
			}
			hash, err := auth.HashPassword(pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export UI_PASSWORD_HASH='%s'\n", hash)
			return nil
		},
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/room-booker/internal/config"
	"github.com/example/room-booker/internal/profile"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the saved library credentials (encrypted with CRED_ENC_KEY)",
	}
	cmd.AddCommand(newProfileSaveCmd())
	cmd.AddCommand(newProfileShowCmd())
	return cmd
}

func newProfileSaveCmd() *cobra.Command {
	var p profile.Profile

	c := &cobra.Command{
		Use:   "save",
		Short: "Save username, password and preferred name",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			store, err := profileStore(cfg)
			if err != nil {
				return err
			}
			if p.Password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				if p.Password, err = readLine(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}
			if err := store.Save(p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved profile for %s to %s\n", p.Username, store.Path())
			return nil
		},
	}

	c.Flags().StringVar(&p.Username, "username", "", "library username")
	c.Flags().StringVar(&p.Password, "password", "", "library password (prompted when omitted)")
	c.Flags().StringVar(&p.PreferredName, "name", "", "name shown on bookings")
	_ = c.MarkFlagRequired("username")
	return c
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the saved profile without the password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			store, err := profileStore(cfg)
			if err != nil {
				return err
			}
			p, err := store.Load()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "path: %s\nusername: %s\npreferred name: %s\npassword: (saved)\n", store.Path(), p.Username, p.PreferredName)
			return nil
		},
	}
}

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/room-booker/internal/auth"
	"github.com/example/room-booker/internal/booking"
	"github.com/example/room-booker/internal/config"
	"github.com/example/room-booker/internal/console"
	"github.com/example/room-booker/internal/scheduler"
	"github.com/example/room-booker/internal/web"
)

func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the web control panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if err := cfg.RequireWeb(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			client, err := booking.NewClient(booking.Options{
				AuthURL:    cfg.AuthURL,
				ReserveURL: cfg.ReserveURL,
				Timeout:    cfg.HTTPTimeout,
				ProxyURL:   cfg.ProxyURL,
			})
			if err != nil {
				return err
			}

			opts := []scheduler.Option{scheduler.WithPollInterval(cfg.PollInterval)}
			ws := &web.Server{
				Auth:      auth.NewStore(cfg.UIPasswordHash, cfg.CookieHashKey, cfg.CookieBlockKey),
				Catalog:   cfg.Catalog(),
				Log:       web.NewLog(web.LogLimit),
				RawFields: cfg.RawFields,
				BaseCtx:   ctx,
			}

			repo, closeDB, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()
			if repo != nil {
				opts = append(opts, scheduler.WithRecorder(repo))
				ws.History = repo
			}

			p, err := savedProfile(cfg)
			if err != nil {
				log.Printf("profile: %v", err)
			}
			ws.Defaults = booking.Request{Username: p.Username, Password: p.Password, PreferredName: p.PreferredName}

			b := scheduler.New(client, opts...)
			b.OnStatus(ws.Log.Add)
			b.OnStatus(console.NewSink(cmd.OutOrStdout()).Handle)
			ws.Booker = b

			fmt.Fprintf(cmd.OutOrStdout(), "control panel at %s\n", cfg.BaseURL)
			return web.Start(ctx, cfg.ListenAddr, ws.Routes())
		},
	}
	return cmd
}

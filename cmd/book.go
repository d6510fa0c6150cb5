package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/room-booker/internal/booking"
	"github.com/example/room-booker/internal/config"
	"github.com/example/room-booker/internal/console"
	"github.com/example/room-booker/internal/rooms"
	"github.com/example/room-booker/internal/scheduler"
)

var errNotBooked = errors.New("room not booked")

type bookFlags struct {
	room, duration, start, name string
	username, password          string
	at, rawFields               string
}

func newBookCmd() *cobra.Command {
	var f bookFlags

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Arm the trigger and book a room when it fires",
		Long: `Waits until --at (default: now), then logs in and requests the room,
retrying immediately while the reservation window is not open yet or the
connection fails. Ctrl-C stops the booker.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			req, err := f.request(cfg)
			if err != nil {
				return err
			}
			target, err := scheduler.ParseTarget(f.at, time.Now())
			if err != nil {
				return err
			}

			client, err := booking.NewClient(booking.Options{
				AuthURL:    cfg.AuthURL,
				ReserveURL: cfg.ReserveURL,
				Timeout:    cfg.HTTPTimeout,
				ProxyURL:   cfg.ProxyURL,
			})
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			opts := []scheduler.Option{scheduler.WithPollInterval(cfg.PollInterval)}
			repo, closeDB, err := openHistory(ctx, cfg)
			if err != nil {
				// booking does not depend on history
				log.Printf("history: disabled: %v", err)
			} else {
				defer closeDB()
				if repo != nil {
					opts = append(opts, scheduler.WithRecorder(repo))
				}
			}

			b := scheduler.New(client, opts...)
			b.OnStatus(console.NewSink(cmd.OutOrStdout()).Handle)
			if err := b.Configure(req); err != nil {
				return err
			}
			if err := b.ArmAt(ctx, target); err != nil {
				return err
			}

			snap, err := b.Wait(context.Background())
			if err != nil {
				return err
			}
			switch {
			case snap.State == scheduler.StateSucceeded:
				return nil
			case ctx.Err() != nil:
				// stopped by the user
				return nil
			case snap.Last != nil:
				return fmt.Errorf("%w: %s", errNotBooked, snap.Last.Kind)
			default:
				return errNotBooked
			}
		},
	}

	cmd.Flags().StringVar(&f.room, "room", rooms.DefaultRoom, "room name or numeric id (see `roombooker rooms`)")
	cmd.Flags().StringVar(&f.duration, "duration", rooms.DefaultDuration, `"1 hour", "2 hours" or minutes`)
	cmd.Flags().StringVar(&f.start, "start", "", "slot start time as the library expects it, e.g. 14:00")
	cmd.Flags().StringVar(&f.name, "name", "", "name shown on the booking (default: saved profile)")
	cmd.Flags().StringVar(&f.username, "username", "", "library username (default: saved profile)")
	cmd.Flags().StringVar(&f.password, "password", "", "library password (default: saved profile)")
	cmd.Flags().StringVar(&f.at, "at", "", "trigger time, YYYY-MM-DD HH:MM[:SS] or HH:MM (default: now)")
	cmd.Flags().StringVar(&f.rawFields, "raw-fields", "", "send these reserve fields verbatim instead of room/duration/start/name")
	return cmd
}

func (f bookFlags) request(cfg config.Config) (booking.Request, error) {
	p, err := savedProfile(cfg)
	if err != nil {
		return booking.Request{}, err
	}
	req := booking.Request{
		Username:      firstNonEmpty(f.username, p.Username),
		PreferredName: firstNonEmpty(f.name, p.PreferredName),
		StartTime:     f.start,
		RawFields:     firstNonEmpty(f.rawFields, cfg.RawFields),
	}
	req.Password = f.password
	if req.Password == "" && req.Username == p.Username {
		req.Password = p.Password
	}

	if req.RawFields == "" {
		room, err := cfg.Catalog().Lookup(f.room)
		if err != nil {
			return booking.Request{}, err
		}
		if req.DurationMin, err = rooms.ParseDuration(f.duration); err != nil {
			return booking.Request{}, err
		}
		req.RoomID = room.ID
	}
	return req, req.Validate()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

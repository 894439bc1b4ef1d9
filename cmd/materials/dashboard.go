package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/go-materials-client/api"
	apperrors "github.com/jrsteele09/go-materials-client/internal/errors"
	"github.com/jrsteele09/go-materials-client/materials"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	msgLoading        = "Loading..."
	msgNoMore         = "No more materials to load."
	msgLoadMore       = "Press Enter to load more."
	msgNotSignedIn    = "Not signed in. Run 'materials login' first."
	msgSessionExpired = "Your session has expired, please log in again."
)

func (c *cli) newListCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"dashboard"},
		Short:   "List materials, loading the next page each time Enter is pressed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.dashboard(cmd.Context(), all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Load every page without waiting for input")
	return cmd
}

// dashboard renders the signed-in user's header and the materials list.
func (c *cli) dashboard(ctx context.Context, all bool) error {
	s, err := c.restore(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		fmt.Fprintln(c.out, msgNotSignedIn)
		return apperrors.ErrNoSession
	}

	user, _ := s.User()
	displayAppname(c.out, c.app.Config.GetAppName())
	fmt.Fprintf(c.out, "Welcome, %s\n\n", displayName(s))

	loader, err := c.app.NewLoader()
	if err != nil {
		return err
	}
	view := &listView{out: c.out, symbol: user.Currency.Symbol, imageBaseURL: c.app.Config.GetImageBaseURL()}

	// The first page is loaded as soon as the list is shown
	view.loading(loader.Cursor())
	res := loader.LoadNext(ctx)
	view.render(res)
	if res.Kind == materials.AuthRetryExhausted {
		return c.forceLogout(res.Err)
	}

	if all {
		return c.drain(ctx, loader, view)
	}
	if !loader.Cursor().HasMore {
		return nil
	}

	trigger := materials.NewChannelTrigger()
	go c.readIntersections(trigger)

	watcher := c.app.NewWatcher(loader,
		materials.OnStart(view.loading),
		materials.OnResult(view.render),
	)
	if err := watcher.Run(ctx, trigger); err != nil {
		if apperrors.Is(err, apperrors.ErrAuthExpired) {
			return c.forceLogout(err)
		}
		return err
	}
	return nil
}

// drain loads every remaining page, stopping at the first failure.
func (c *cli) drain(ctx context.Context, loader *materials.Loader, view *listView) error {
	for loader.Cursor().HasMore {
		view.loading(loader.Cursor())
		res := loader.LoadNext(ctx)
		view.render(res)
		switch res.Kind {
		case materials.AuthRetryExhausted:
			return c.forceLogout(res.Err)
		case materials.TransportError:
			return res.Err
		}
	}
	return nil
}

// readIntersections turns every input line into an intersection event.
func (c *cli) readIntersections(trigger *materials.ChannelTrigger) {
	defer trigger.Close()
	for {
		if _, err := c.in.ReadString('\n'); err != nil {
			return
		}
		trigger.Notify()
	}
}

func (c *cli) forceLogout(cause error) error {
	log.Err(cause).Msg("dashboard: session could not be renewed, signing out")
	if err := c.app.Manager.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, msgSessionExpired)
	return apperrors.Join(apperrors.ErrAuthExpired, cause)
}

// listView prints pages of materials as they arrive.
type listView struct {
	out          io.Writer
	symbol       string
	imageBaseURL string
	shown        int
}

func (v *listView) loading(materials.Cursor) {
	fmt.Fprintln(v.out, msgLoading)
}

func (v *listView) render(res materials.Result) {
	switch res.Kind {
	case materials.Appended:
		v.print(res.Items)
		if res.Cursor.HasMore {
			fmt.Fprintln(v.out, msgLoadMore)
		} else {
			fmt.Fprintln(v.out, msgNoMore)
		}
	case materials.TransportError:
		fmt.Fprintf(v.out, "Could not load more materials: %v\n", res.Err)
	}
}

func (v *listView) print(items []api.Material) {
	for _, m := range items {
		v.shown++
		fmt.Fprintf(v.out, "%4d. %s\n", v.shown, materials.Describe(m, v.symbol, v.imageBaseURL))
	}
}

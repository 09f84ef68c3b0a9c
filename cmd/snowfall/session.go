package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/i474232898/snowfall-check/internal/location"
)

const commandHelp = "Commands: p = use precise location, s = search another place, b = toggle blizzard, r = refresh, q = quit"

// resolve runs the location session until it yields a location, prompting
// for a search whenever automatic detection is exhausted.
func resolve(ctx context.Context, ctrl *location.Controller, query string, in *bufio.Scanner, out io.Writer) (location.Resolved, error) {
	if query == "" {
		ctrl.Start(ctx)
		ctrl.Wait()
		return prompt(ctx, ctrl, ctrl.Resolved(), in, out)
	}

	res, err := ctrl.SubmitSearch(ctx, query)
	reportSearchError(out, err)
	return prompt(ctx, ctrl, res, in, out)
}

// prompt asks for places until res has a location or input ends.
func prompt(ctx context.Context, ctrl *location.Controller, res location.Resolved, in *bufio.Scanner, out io.Writer) (location.Resolved, error) {
	for !res.HasLocation() {
		if res.Hint != "" {
			fmt.Fprintln(out, res.Hint)
		}
		if res.Notice != "" {
			fmt.Fprintln(out, res.Notice)
		}
		fmt.Fprint(out, "Search for a place (e.g. Denver, CO): ")
		if !in.Scan() {
			return res, errors.New("no place entered")
		}

		var err error
		res, err = ctrl.SubmitSearch(ctx, strings.TrimSpace(in.Text()))
		reportSearchError(out, err)
	}
	return res, nil
}

func reportSearchError(out io.Writer, err error) {
	if err != nil && !errors.Is(err, location.ErrEmptyQuery) && !errors.Is(err, location.ErrStaleSearch) {
		fmt.Fprintf(out, "Search failed: %v\n", err)
	}
}

// runCommands reads one command per line and applies it to the session.
// Location changes reach the view through its controller subscription; the
// view is re-rendered after each command that moved it.
func runCommands(ctx context.Context, ctrl *location.Controller, v *view, in *bufio.Scanner, out io.Writer) error {
	fmt.Fprintln(out, commandHelp)

	for in.Scan() {
		switch strings.ToLower(strings.TrimSpace(in.Text())) {
		case "p":
			ctrl.UsePreciseLocation(ctx)
			ctrl.Wait()
			if _, err := prompt(ctx, ctrl, ctrl.Resolved(), in, out); err != nil {
				return err
			}
		case "s":
			ctrl.CheckAnotherLocation()
			if _, err := prompt(ctx, ctrl, ctrl.Resolved(), in, out); err != nil {
				return err
			}
		case "b":
			v.setTheme(ctrl.ToggleTheme())
			reportRenderError(out, v.render(ctx, false))
			continue
		case "r":
			reportRenderError(out, v.render(ctx, true))
			continue
		case "q":
			return nil
		case "":
			continue
		default:
			fmt.Fprintln(out, commandHelp)
			continue
		}

		reportRenderError(out, v.renderIfMoved(ctx))
	}
	return in.Err()
}

func reportRenderError(out io.Writer, err error) {
	if err != nil {
		fmt.Fprintf(out, "Could not load snowfall: %v\n", err)
	}
}

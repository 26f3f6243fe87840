package main

import (
	"context"
	"fmt"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/monitor"
	"github.com/spf13/cobra"
)

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <index> <percent>",
		Short: "Set the brightness of a display",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			value, err := parsePercent(args[1])
			if err != nil {
				return err
			}

			lib, registry := discover()
			ctrl := monitor.NewController(registry, monitor.NewWriter(lib, cfg.WaitOpen))

			done := make(chan monitor.Completion, 1)
			ctrl.Subscribe(func(c monitor.Completion) {
				select {
				case done <- c:
				default:
				}
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			stopped := make(chan error, 1)
			go func() {
				stopped <- ctrl.Run(ctx)
			}()

			comp, err := setAndWait(ctx, ctrl, done, index, value)
			cancel()
			if runErr := <-stopped; runErr != nil && err == nil {
				err = runErr
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "monitor %d set to %d%%\n", comp.Index, comp.Value)
			return nil
		},
	}
}

func setAndWait(ctx context.Context, ctrl *monitor.Controller, done <-chan monitor.Completion, index int, value uint8) (monitor.Completion, error) {
	if _, err := ctrl.Request(ctx, index, value); err != nil {
		return monitor.Completion{}, err
	}

	select {
	case comp := <-done:
		if !comp.OK() {
			return comp, errors.New().Wrap(errors.ErrSetBrightness, comp.Err)
		}
		return comp, nil
	case <-ctx.Done():
		return monitor.Completion{}, errors.New().Wrap(errors.ErrTimeout, ctx.Err())
	}
}

package main

import (
	"strconv"

	"codeberg.org/mutker/ddcctl/internal/config"
	"codeberg.org/mutker/ddcctl/internal/ddc"
	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/logger"
	"codeberg.org/mutker/ddcctl/internal/monitor"
	"github.com/spf13/cobra"
)

const fallbackLibrary = "libddcutil.so"

var (
	Version = "0.1.0"

	cfg *config.Config
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ddcctl",
		Version:       Version,
		Short:         "Control monitor brightness over DDC/CI",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			if err := logger.InitWriter(cmd.ErrOrStderr(), cfg.LogLevel, logger.IsService()); err != nil {
				return err
			}
			logger.Debug().Str("config", cfg.File()).Msg("Config loaded")

			return nil
		},
	}

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newListCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newSetCmd())
	root.AddCommand(newServeCmd())

	return root
}

// discover loads the display library and enumerates the monitors.
func discover() (ddc.Library, *monitor.Registry) {
	lib := ddc.NewNative(cfg.Library, fallbackLibrary)
	reader := monitor.NewReader(lib,
		monitor.WithWait(cfg.WaitOpen),
		monitor.WithFallback(uint8(cfg.DefaultBrightness)),
	)

	return lib, monitor.Discover(lib, reader)
}

func parseIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil || index < 0 {
		return 0, errors.New().WithData(errors.ErrInvalidArgument, "monitor index must be a non-negative integer")
	}
	return index, nil
}

func parsePercent(arg string) (uint8, error) {
	value, err := strconv.ParseUint(arg, 10, 8)
	if err != nil || value > 100 {
		return 0, errors.New().WithData(errors.ErrInvalidArgument, "brightness must be between 0 and 100")
	}
	return uint8(value), nil
}

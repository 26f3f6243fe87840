package monitor

import (
	"codeberg.org/mutker/ddcctl/internal/ddc"
	"codeberg.org/mutker/ddcctl/internal/logger"
)

// Discover initializes the library, enumerates the connected displays and
// reads their brightness. It runs once at startup and never fails; any
// library error leaves the registry empty.
func Discover(lib ddc.Library, reader *Reader) *Registry {
	if err := lib.Init(); err != nil {
		logger.Error().Err(err).Msg("Failed to initialize display library")
		return NewRegistry(nil)
	}

	refs, err := lib.DisplayRefs()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to enumerate displays")
		return NewRegistry(nil)
	}
	if len(refs) == 0 {
		logger.Warn().Msg("No displays found")
	}

	monitors := make([]Monitor, 0, len(refs))
	for i, ref := range refs {
		reading := reader.Read(ref)
		m := Monitor{
			Index:      i,
			Ref:        ref,
			Label:      lib.Describe(ref),
			Brightness: reading.Percent,
			Max:        reading.Max,
		}
		monitors = append(monitors, m)

		logger.Info().
			Int("monitor", i).
			Str("display", m.Label).
			Uint8("brightness", m.Brightness).
			Uint16("max", m.Max).
			Bool("read_ok", reading.OK).
			Msg("Detected display")
	}

	return NewRegistry(monitors)
}

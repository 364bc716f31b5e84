package adapters

import (
	"github.com/rs/zerolog"

	"leanup/internal/ports"
	"leanup/internal/types"
)

// LogObserver renders core events through zerolog. Progress events are
// kept at debug level so ordinary runs stay quiet; the stale-cache
// substitution is the one warning-level event.
type LogObserver struct {
	Logger zerolog.Logger
}

func NewLogObserver(logger zerolog.Logger) LogObserver {
	return LogObserver{Logger: logger}
}

func (o LogObserver) OnEvent(event types.Event) {
	switch event.Kind {
	case types.EventUsingCachedRelease:
		o.Logger.Warn().
			Str("toolchain", event.Toolchain).
			Str("channel", string(event.Channel)).
			Msg("release host unreachable, using latest installed release")
	case types.EventResolvingChannel:
		o.Logger.Debug().
			Str("origin", event.Toolchain).
			Str("channel", string(event.Channel)).
			Msg("resolving channel")
	case types.EventResolvedRelease:
		o.Logger.Info().
			Str("toolchain", event.Toolchain).
			Str("channel", string(event.Channel)).
			Msg("resolved release")
	case types.EventDownloadBegin:
		o.Logger.Info().
			Str("url", event.URL).
			Int64("bytes", event.Total).
			Msg("downloading")
	case types.EventDownloadProgress:
		o.Logger.Debug().
			Int64("received", event.Received).
			Int64("total", event.Total).
			Msg("download progress")
	case types.EventDownloadEnd:
		o.Logger.Debug().
			Str("url", event.URL).
			Int64("received", event.Received).
			Msg("download complete")
	case types.EventWaitingForLock:
		o.Logger.Info().
			Str("path", event.Path).
			Int("pid", event.PID).
			Msg("waiting for install lock held by another process")
	case types.EventExtracting:
		o.Logger.Info().
			Str("path", event.Path).
			Msg("extracting")
	case types.EventInstalling:
		o.Logger.Info().
			Str("toolchain", event.Toolchain).
			Msg("installing toolchain")
	case types.EventInstalled:
		o.Logger.Info().
			Str("toolchain", event.Toolchain).
			Msg("installed toolchain")
	case types.EventUsingExisting:
		o.Logger.Debug().
			Str("toolchain", event.Toolchain).
			Msg("using existing toolchain")
	case types.EventUninstalling:
		o.Logger.Info().
			Str("toolchain", event.Toolchain).
			Msg("uninstalling toolchain")
	case types.EventUninstalled:
		o.Logger.Info().
			Str("toolchain", event.Toolchain).
			Msg("uninstalled toolchain")
	case types.EventNotInstalled:
		o.Logger.Debug().
			Str("toolchain", event.Toolchain).
			Msg("toolchain not installed")
	case types.EventSetDefault:
		o.Logger.Info().
			Str("toolchain", event.Toolchain).
			Msg("default toolchain set")
	case types.EventSetOverride:
		o.Logger.Info().
			Str("toolchain", event.Toolchain).
			Str("path", event.Path).
			Msg("directory override set")
	}
}

var _ ports.ObserverPort = LogObserver{}

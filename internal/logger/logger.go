// Package logger provides configured zerolog component loggers.
package logger

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

func init() {
	// Call sites use .Stack() on error events to include stacks; make sure a
	// stack is present even for std errors.
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
}

// New returns a logger derived from the global logger, tagged with the
// component name. Configure the global logger first (config.Init).
func New(component string) zerolog.Logger {
	return log.Logger.With().
		Str("component", component).
		Logger()
}

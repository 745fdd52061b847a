package transport

import (
	"fmt"

	"github.com/rs/zerolog"
)

// restyLogger forwards resty's internal messages to zerolog.
type restyLogger struct {
	logger zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error().Str("source", "resty").Msg(fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn().Str("source", "resty").Msg(fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug().Str("source", "resty").Msg(fmt.Sprintf(format, v...))
}

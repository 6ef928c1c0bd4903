package main

import (
	"github.com/rs/zerolog"
)

// storeLogger adapts a zerolog.Logger to the store's logging port. Args are
// interpreted as alternating key-value pairs.
type storeLogger struct {
	logger zerolog.Logger
}

func (s storeLogger) Debug(msg string, args ...any) {
	logWith(s.logger.Debug(), msg, args)
}

func (s storeLogger) Info(msg string, args ...any) {
	logWith(s.logger.Info(), msg, args)
}

func (s storeLogger) Warn(msg string, args ...any) {
	logWith(s.logger.Warn(), msg, args)
}

func (s storeLogger) Error(msg string, args ...any) {
	logWith(s.logger.Error(), msg, args)
}

func logWith(event *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}

		event = event.Interface(key, args[i+1])
	}

	event.Msg(msg)
}

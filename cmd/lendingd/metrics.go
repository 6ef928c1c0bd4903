package main

import (
	"time"

	"github.com/rs/zerolog"
)

// logMetrics emits metrics as debug-level log events, useful until a real
// metrics backend is attached. It satisfies the collector port of both the
// store and the command handlers.
type logMetrics struct {
	logger zerolog.Logger
}

func (m logMetrics) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	m.event(metric, labels).Dur("duration", duration).Msg("metric")
}

func (m logMetrics) IncrementCounter(metric string, labels map[string]string) {
	m.event(metric, labels).Msg("metric")
}

func (m logMetrics) RecordValue(metric string, value float64, labels map[string]string) {
	m.event(metric, labels).Float64("value", value).Msg("metric")
}

func (m logMetrics) event(metric string, labels map[string]string) *zerolog.Event {
	event := m.logger.Debug().Str("metric", metric)
	for key, value := range labels {
		event = event.Str(key, value)
	}

	return event
}

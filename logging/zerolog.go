// Package logging provides a core.Logger adapter over
// github.com/rs/zerolog.
package logging

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/getpup/pupbase/core"
)

// ZerologAdapter implements core.Logger over a zerolog.Logger.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps an existing zerolog.Logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

var _ core.Logger = (*ZerologAdapter)(nil)

// Debug implements core.Logger.
func (a *ZerologAdapter) Debug(ctx context.Context, msg string, keyvals ...interface{}) {
	withKeyvals(a.logger.Debug(), keyvals...).Msg(msg)
}

// Info implements core.Logger.
func (a *ZerologAdapter) Info(ctx context.Context, msg string, keyvals ...interface{}) {
	withKeyvals(a.logger.Info(), keyvals...).Msg(msg)
}

// Error implements core.Logger.
func (a *ZerologAdapter) Error(ctx context.Context, msg string, keyvals ...interface{}) {
	withKeyvals(a.logger.Error(), keyvals...).Msg(msg)
}

// withKeyvals attaches alternating key/value pairs to an in-flight
// zerolog event, mirroring the keyvals convention of core.Logger.
func withKeyvals(event *zerolog.Event, keyvals ...interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, keyvals[i+1])
	}
	return event
}

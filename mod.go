// Package strata implements an in-memory key/value store that supports
// nested transactions.
//
// The store keeps a single committed mapping shared by every caller. Each
// logical caller opens its own session and can stack any number of
// transactions on top of it: writes and deletes made inside a transaction
// stay private to the session until they are committed, level by level, up
// to the committed store.
package strata

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(zerolog.InfoLevel)

// PromCollectors exposes the prometheus collectors declared by the
// packages of this module. Registration is left to the application so
// that importing the library does not touch the default registry.
var PromCollectors []prometheus.Collector

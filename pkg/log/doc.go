// Package log provides structured logging for vectord using zerolog.
//
// The global Logger is configured once via Init and shared by every
// package; component loggers are derived from it with WithComponent,
// WithIndex, and WithConn so log lines carry consistent fields without
// each caller re-deriving them.
//
//	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
//	logger := log.WithComponent("registry")
//	logger.Info().Str("index", name).Msg("index created")
package log

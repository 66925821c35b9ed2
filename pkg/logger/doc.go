// Package logger builds slog.Logger instances with a shared set of defaults
// so every service in the product logs the same way.
//
// The zero-option call is production-ready: JSON records at info level on
// stdout. Options adjust level, format, destination, and static attributes.
//
// Basic usage:
//
//	log := logger.New(
//	    logger.WithService("gatekitd"),
//	)
//	log.Info("server started", "addr", ":8080")
//
// Local development:
//
//	log := logger.New(logger.WithDevelopment())
//
// Components that accept a *slog.Logger should treat nil as "log nothing"
// and substitute slog.New(slog.DiscardHandler) rather than panicking.
package logger

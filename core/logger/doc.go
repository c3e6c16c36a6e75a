// Package logger provides structured logging built on log/slog: a small
// constructor with environment presets and nil-safe attribute helpers used
// across the session layer.
//
// # Basic Usage
//
//	import "github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/logger"
//
//	log := logger.New(
//		logger.WithProduction("portal"),
//		logger.WithOutput(os.Stderr),
//	)
//
//	log.Info("session armed",
//		logger.Component("idle"),
//		logger.Audience("admin"),
//	)
//
// # Environment Presets
//
//	logger.New(logger.WithDevelopment("portal")) // text, debug
//	logger.New(logger.WithStaging("portal"))     // JSON, info
//	logger.New(logger.WithProduction("portal"))  // JSON, info
//
// # Context Values
//
// Values stored in a context can be copied into every *Context call:
//
//	log := logger.New(logger.WithContextValue(requestIDKey{}, "request_id"))
//	log.InfoContext(ctx, "calling backend")
//
// # Attribute Helpers
//
// Helpers return an empty attribute for nil errors and empty strings, so they
// can be passed unconditionally:
//
//	log.Warn("csrf fetch failed", logger.Error(err), logger.Path(endpoint))
//
// Components that accept a logger default to Discard when none is given.
// Tokens, passwords and CSRF values must never be passed to a logger.
package logger

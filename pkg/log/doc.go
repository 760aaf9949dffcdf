// Package log provides the logging abstraction used by the dancer host.
//
// Core packages (deferred, update, lifecycle) only depend on the Logger
// interface defined here, so embedding applications can route host logs
// into their own sink. A zerolog adapter and a no-op logger are provided.
//
// # Usage
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	logger.Info("pool started", log.Int("workers", 4))
//
// # Levels
//
// ParseLevel resolves the --logging-mode flag values (DEBUG, INFO, WARN,
// WARNING, ERROR) into a zerolog.Level.
package log

// Package log provides the logging abstraction used across airship.
//
// Any structured logger can sit behind the Logger interface. A zerolog
// adapter is provided for the command; the no-op logger is the library
// default and the usual choice in tests.
//
//	logger := log.NewZerologAdapter(os.Stderr, zerolog.InfoLevel)
//	logger.Info("received record", log.Any("record", rec))
package log

// Package logger provides structured logging for yandl.
//
// It wraps zerolog behind a small Logger interface so that pipeline
// components can be handed a real logger, a no-op logger, or a TestLogger
// that records messages for assertions.
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("component", "crawler")
//	log.InfoWithFields("page fetched", map[string]interface{}{"page": 3})
//
// Console output is written to stderr so it does not interleave with the
// progress bars drawn on stdout. When LoggingConfig.File is set, JSON lines
// are appended to that file as well.
package logger

// Package logging provides structured logging using uber/zap.
//
// Production writes JSON, development writes coloured console output.
// Invocation loggers carry an invocation_id field so every line of one
// evaluation can be correlated.
//
//	logger := logging.NewDefault()
//	log := logger.ForInvocation(id)
//	log.Info("evaluation finished", zap.Duration("duration", d))
package logging

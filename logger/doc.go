// Package logger provides structured logging for depkit using zerolog.
//
// The dependency registry reports its lifecycle events (construction,
// overrides, promotion) through a component logger from this package.
// Output format (JSON or console), level and caller annotation come from
// Config.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//	  caller: true
//
// # Usage
//
//	log := logger.Get("di")
//	log.Debug("dependency created", logger.Fields(logger.FieldKey, "App.db"))
package logger

// Package errors provides the structured error type used across depkit.
// Registry programmer errors (type mismatches, malformed scopes) are raised
// as *AppError panics; the HTTP inspector renders AppErrors as JSON bodies.
package errors

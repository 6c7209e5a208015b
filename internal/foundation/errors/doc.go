// Package errors provides the classified error primitives used across snapfront.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, auth, upstream, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior (never, backoff, user action)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - HTTP and CLI adapters for error presentation
//
// Example usage:
//
//	err := errors.UpstreamError("store API request failed").
//		WithContext("url", endpoint).
//		WithCause(originalErr).
//		Build()
package errors

// Package observability provides structured logging for the authenticator.
//
// Loggers are zap-based. Request-scoped lines carry the request ID placed in
// the context by chi's RequestID middleware.
package observability

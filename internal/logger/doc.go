// Package logger wraps zap for the release CLIs:
//   - a global sugared logger with a console encoder writing to stderr,
//     leaving stdout free for machine-readable results,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithRunID),
//   - level parsing for the --log-level flag.
//
// Services accept a context and extract the logger from it, so every line
// of one invocation carries the same run identifier.
package logger

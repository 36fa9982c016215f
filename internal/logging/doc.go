// Package logging provides a simple leveled logging interface for the
// file dashboard.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The initial level comes from the LOG_LEVEL environment variable and may be
// overridden by Configure, which can also tee output into a rotating log file.
package logging

// Package logx wraps zerolog behind a small structured-logging API.
//
// Components receive a Logger value; the Service owns sink configuration
// (console/file, level) and can swap it at runtime via Apply without the
// holders of derived Loggers noticing.
package logx

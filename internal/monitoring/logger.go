// Package monitoring holds the capsule's diagnostic logging: a replaceable
// package logger used by the processing path and, in pipeline runs, a
// per-job log file mirrored alongside stdout (see filelog.go).
package monitoring

import "log"

// Logf is the diagnostic logger the capsule and datacube packages write
// through. It defaults to log.Printf; SetLogger redirects or mutes it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

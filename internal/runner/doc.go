// Package runner launches external model runtimes in the foreground with the
// caller's standard streams attached.
package runner

// Package models owns the two process-wide model handles: the speech-to-text
// transcriber and the text-to-speech synthesizer. Handles are built once at
// startup; a model that fails to load stays nil and its endpoint reports
// service unavailable instead of taking the process down.
package models

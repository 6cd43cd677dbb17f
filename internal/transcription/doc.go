// Package transcription implements the speech-to-text backend client.
// It uploads audio files from disk to an OpenAI-compatible transcription
// endpoint, optionally retrying 429/5xx failures with exponential backoff,
// and keeps request statistics.
package transcription

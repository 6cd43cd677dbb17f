// Package server implements the HTTP API: speech-to-text uploads, long-form
// text-to-speech, the chat relay, and health/config/metrics endpoints.
//
// Model calls run on a context detached from the client connection and may be
// capped by a weighted semaphore; everything else follows the request context.
package server

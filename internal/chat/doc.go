// Package chat forwards conversations to a local Ollama server and relays its
// NDJSON token stream unchanged.
package chat

// Package synthesis implements the text-to-speech backend client.
package synthesis

// Package audio holds the waveform buffer used by synthesis and its WAV codec.
// It builds silence, joins sentence waveforms with fixed gaps, encodes mono
// 32-bit float WAV streams and decodes the PCM/float WAV files returned by
// inference backends.
package audio

// Package segment implements long-form speech synthesis: text is split into
// sentences with a Punkt tokenizer, each sentence is synthesized on its own,
// and the waveforms are joined with a fixed silence between them.
package segment

package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WAV format tags found in the fmt chunk
const (
	FormatPCM        uint16 = 1
	FormatIEEEFloat  uint16 = 3
	formatExtensible uint16 = 0xFFFE
)

// ContentType is the media type of every WAV stream produced here
const ContentType = "audio/wav"

const headerSize = 44

// WAVHeader represents the canonical 44-byte header of a WAV file
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16
	AudioFormat   uint16  // 1 for PCM, 3 for IEEE float
	NumChannels   uint16  // Number of channels
	SampleRate    uint32  // Sample rate
	ByteRate      uint32  // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16  // NumChannels * BitsPerSample / 8
	BitsPerSample uint16  // Bits per sample
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

func newHeader(format, bitsPerSample uint16, sampleRate int, dataSize uint32) WAVHeader {
	numChannels := uint16(1)
	return WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   format,
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// WriteWAV writes w as a mono 32-bit IEEE float WAV stream.
// An empty waveform produces a valid header with no data frames.
func WriteWAV(dst io.Writer, w Waveform) error {
	if w.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", w.SampleRate)
	}

	header := newHeader(FormatIEEEFloat, 32, w.SampleRate, uint32(len(w.Samples)*4))

	if err := binary.Write(dst, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write WAV header: %w", err)
	}

	if len(w.Samples) == 0 {
		return nil
	}

	if err := binary.Write(dst, binary.LittleEndian, w.Samples); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}

	return nil
}

// EncodeWAV encodes w as a 32-bit IEEE float WAV file held in memory
func EncodeWAV(w Waveform) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(w.Samples)*4))
	if err := WriteWAV(buf, w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePCM16 encodes PCM-16 samples into WAV format
func EncodePCM16(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio samples")
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	header := newHeader(FormatPCM, 16, sampleRate, uint32(len(samples)*2))
	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(samples)*2))

	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}

	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	return buf.Bytes(), nil
}

type fmtChunk struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// DecodeWAV decodes a RIFF/WAVE file into a mono float waveform.
// It walks the chunk list, so LIST/fact chunks before the data are skipped.
// Supported encodings: PCM 16/24/32-bit and IEEE float 32/64-bit, including
// WAVE_FORMAT_EXTENSIBLE. Multi-channel audio is averaged down to mono.
func DecodeWAV(data []byte) (Waveform, error) {
	if len(data) < 12 {
		return Waveform{}, fmt.Errorf("WAV data too short: need at least 12 bytes, got %d", len(data))
	}

	if string(data[0:4]) != "RIFF" {
		return Waveform{}, fmt.Errorf("invalid WAV file: missing RIFF header")
	}

	if string(data[8:12]) != "WAVE" {
		return Waveform{}, fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	var (
		format  *fmtChunk
		payload []byte
	)

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		// Streaming encoders leave the size at 0 or 0xFFFFFFFF
		if size < 0 || body+size > len(data) || (id == "data" && size == 0) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return Waveform{}, fmt.Errorf("invalid WAV file: fmt chunk is %d bytes", size)
			}
			var f fmtChunk
			if err := binary.Read(bytes.NewReader(data[body:body+16]), binary.LittleEndian, &f); err != nil {
				return Waveform{}, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			if f.AudioFormat == formatExtensible && size >= 26 {
				// first two bytes of the SubFormat GUID carry the real tag
				f.AudioFormat = binary.LittleEndian.Uint16(data[body+24 : body+26])
			}
			format = &f
		case "data":
			payload = data[body : body+size]
		}

		if payload != nil && format != nil {
			break
		}

		offset = body + size + size%2
	}

	if format == nil {
		return Waveform{}, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}

	if payload == nil {
		return Waveform{}, fmt.Errorf("invalid WAV file: missing data chunk")
	}

	if format.SampleRate == 0 {
		return Waveform{}, fmt.Errorf("invalid sample rate: 0")
	}

	if format.NumChannels == 0 {
		return Waveform{}, fmt.Errorf("invalid channel count: 0")
	}

	decode, err := sampleDecoder(format.AudioFormat, format.BitsPerSample)
	if err != nil {
		return Waveform{}, err
	}

	width := int(format.BitsPerSample / 8)
	channels := int(format.NumChannels)
	frameSize := width * channels
	frames := len(payload) / frameSize

	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		frame := payload[i*frameSize : (i+1)*frameSize]
		var sum float64
		for c := 0; c < channels; c++ {
			sum += decode(frame[c*width : (c+1)*width])
		}
		samples[i] = float32(sum / float64(channels))
	}

	return Waveform{Samples: samples, SampleRate: int(format.SampleRate)}, nil
}

func sampleDecoder(format, bits uint16) (func([]byte) float64, error) {
	switch {
	case format == FormatPCM && bits == 16:
		return func(b []byte) float64 {
			return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
		}, nil
	case format == FormatPCM && bits == 24:
		return func(b []byte) float64 {
			v := int32(uint32(b[0])<<8|uint32(b[1])<<16|uint32(b[2])<<24) >> 8
			return float64(v) / 8388608
		}, nil
	case format == FormatPCM && bits == 32:
		return func(b []byte) float64 {
			return float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648
		}, nil
	case format == FormatIEEEFloat && bits == 32:
		return func(b []byte) float64 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		}, nil
	case format == FormatIEEEFloat && bits == 64:
		return func(b []byte) float64 {
			return math.Float64frombits(binary.LittleEndian.Uint64(b))
		}, nil
	default:
		return nil, fmt.Errorf("unsupported audio encoding: format %d with %d bits per sample", format, bits)
	}
}

// WAVInfo describes the canonical header of a WAV file
type WAVInfo struct {
	AudioFormat   uint16  `json:"audio_format"`
	SampleRate    uint32  `json:"sample_rate"`
	Channels      uint16  `json:"channels"`
	BitsPerSample uint16  `json:"bits_per_sample"`
	Duration      float64 `json:"duration_seconds"`
	DataSize      uint32  `json:"data_size_bytes"`
	NumSamples    uint32  `json:"num_samples"`
}

// GetWAVInfo extracts metadata from a canonical 44-byte-header WAV file
func GetWAVInfo(data []byte) (*WAVInfo, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("WAV data too short: need at least %d bytes, got %d", headerSize, len(data))
	}

	var header WAVHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}

	if string(header.ChunkID[:]) != "RIFF" || string(header.Format[:]) != "WAVE" {
		return nil, fmt.Errorf("invalid WAV file: missing RIFF/WAVE header")
	}

	if string(header.Subchunk2ID[:]) != "data" {
		return nil, fmt.Errorf("invalid WAV file: data chunk not at offset 36")
	}

	if header.SampleRate == 0 || header.BlockAlign == 0 {
		return nil, fmt.Errorf("invalid WAV header: sample rate %d, block align %d", header.SampleRate, header.BlockAlign)
	}

	numSamples := header.Subchunk2Size / uint32(header.BlockAlign)

	return &WAVInfo{
		AudioFormat:   header.AudioFormat,
		SampleRate:    header.SampleRate,
		Channels:      header.NumChannels,
		BitsPerSample: header.BitsPerSample,
		Duration:      float64(numSamples) / float64(header.SampleRate),
		DataSize:      header.Subchunk2Size,
		NumSamples:    numSamples,
	}, nil
}

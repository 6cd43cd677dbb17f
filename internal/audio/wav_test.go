package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n, sampleRate int, frequency float64) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*frequency*t))
	}
	return samples
}

func TestEncodeWAV(t *testing.T) {
	// 0.1 seconds of a 440Hz tone at Bark's 24kHz output rate
	sampleRate := 24000
	numSamples := sampleRate / 10
	w := Waveform{Samples: sine(numSamples, sampleRate, 440), SampleRate: sampleRate}

	wavData, err := EncodeWAV(w)
	require.NoError(t, err)

	assert.Len(t, wavData, headerSize+numSamples*4)

	info, err := GetWAVInfo(wavData)
	require.NoError(t, err)

	assert.Equal(t, FormatIEEEFloat, info.AudioFormat)
	assert.Equal(t, uint32(sampleRate), info.SampleRate)
	assert.Equal(t, uint16(1), info.Channels)
	assert.Equal(t, uint16(32), info.BitsPerSample)
	assert.Equal(t, uint32(numSamples), info.NumSamples)
	assert.InDelta(t, 0.1, info.Duration, 0.001)
}

func TestEncodeWAVEmpty(t *testing.T) {
	wavData, err := EncodeWAV(Waveform{SampleRate: 24000})
	require.NoError(t, err)
	require.Len(t, wavData, headerSize)

	info, err := GetWAVInfo(wavData)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), info.NumSamples)
	assert.Equal(t, 0.0, info.Duration)

	decoded, err := DecodeWAV(wavData)
	require.NoError(t, err)
	assert.Equal(t, 0, decoded.Len())
	assert.Equal(t, 24000, decoded.SampleRate)
}

func TestEncodeWAVInvalidSampleRate(t *testing.T) {
	_, err := EncodeWAV(Waveform{Samples: []float32{0.1}, SampleRate: 0})
	assert.Error(t, err)

	_, err = EncodeWAV(Waveform{Samples: []float32{0.1}, SampleRate: -1000})
	assert.Error(t, err)
}

func TestFloatRoundTrip(t *testing.T) {
	original := Waveform{Samples: []float32{0, 0.25, -0.5, 1, -1}, SampleRate: 22050}

	wavData, err := EncodeWAV(original)
	require.NoError(t, err)

	decoded, err := DecodeWAV(wavData)
	require.NoError(t, err)

	assert.Equal(t, original.SampleRate, decoded.SampleRate)
	assert.Equal(t, original.Samples, decoded.Samples)
}

func TestDecodePCM16(t *testing.T) {
	wavData, err := EncodePCM16([]int16{0, 16384, -16384, -32768}, 8000)
	require.NoError(t, err)

	decoded, err := DecodeWAV(wavData)
	require.NoError(t, err)

	assert.Equal(t, 8000, decoded.SampleRate)
	assert.Equal(t, []float32{0, 0.5, -0.5, -1}, decoded.Samples)
}

func TestEncodePCM16Invalid(t *testing.T) {
	_, err := EncodePCM16([]int16{}, 8000)
	assert.Error(t, err)

	_, err = EncodePCM16([]int16{1, 2}, 0)
	assert.Error(t, err)
}

// buildWAV assembles a RIFF file from raw chunks so decoder edge cases can be exercised
func buildWAV(chunks ...[]byte) []byte {
	var body bytes.Buffer
	body.WriteString("WAVE")
	for _, c := range chunks {
		body.Write(c)
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func chunk(id string, payload []byte) []byte {
	var b bytes.Buffer
	b.WriteString(id)
	binary.Write(&b, binary.LittleEndian, uint32(len(payload)))
	b.Write(payload)
	if len(payload)%2 == 1 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

func fmtPayload(format, channels uint16, sampleRate uint32, bits uint16) []byte {
	var b bytes.Buffer
	blockAlign := channels * bits / 8
	binary.Write(&b, binary.LittleEndian, fmtChunk{
		AudioFormat:   format,
		NumChannels:   channels,
		SampleRate:    sampleRate,
		ByteRate:      sampleRate * uint32(blockAlign),
		BlockAlign:    blockAlign,
		BitsPerSample: bits,
	})
	return b.Bytes()
}

func TestDecodeWAVSkipsExtraChunks(t *testing.T) {
	var data bytes.Buffer
	binary.Write(&data, binary.LittleEndian, []int16{16384, -16384})

	wavData := buildWAV(
		chunk("fmt ", fmtPayload(FormatPCM, 1, 16000, 16)),
		chunk("LIST", []byte("INFOISFT\x05\x00\x00\x00Lavf\x00")),
		chunk("data", data.Bytes()),
	)

	decoded, err := DecodeWAV(wavData)
	require.NoError(t, err)
	assert.Equal(t, 16000, decoded.SampleRate)
	assert.Equal(t, []float32{0.5, -0.5}, decoded.Samples)
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	var data bytes.Buffer
	binary.Write(&data, binary.LittleEndian, []float32{1, 0, -0.5, -0.5})

	wavData := buildWAV(
		chunk("fmt ", fmtPayload(FormatIEEEFloat, 2, 48000, 32)),
		chunk("data", data.Bytes()),
	)

	decoded, err := DecodeWAV(wavData)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.5}, decoded.Samples)
}

func TestDecodeWAVStreamingDataSize(t *testing.T) {
	var data bytes.Buffer
	binary.Write(&data, binary.LittleEndian, []int16{16384, 16384, 16384})

	// data chunk written before its length was known
	var broken bytes.Buffer
	broken.WriteString("data")
	binary.Write(&broken, binary.LittleEndian, uint32(0xFFFFFFFF))
	broken.Write(data.Bytes())

	wavData := buildWAV(chunk("fmt ", fmtPayload(FormatPCM, 1, 8000, 16)), broken.Bytes())

	decoded, err := DecodeWAV(wavData)
	require.NoError(t, err)
	assert.Equal(t, 3, decoded.Len())
}

func TestDecodeWAVErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "too short", data: []byte{1, 2, 3}},
		{name: "not riff", data: append([]byte("FAKE\x00\x00\x00\x00WAVE"), make([]byte, 40)...)},
		{name: "not wave", data: append([]byte("RIFF\x00\x00\x00\x00AVI "), make([]byte, 40)...)},
		{name: "missing fmt", data: buildWAV(chunk("data", []byte{0, 0}))},
		{name: "missing data", data: buildWAV(chunk("fmt ", fmtPayload(FormatPCM, 1, 8000, 16)))},
		{name: "unsupported encoding", data: buildWAV(
			chunk("fmt ", fmtPayload(FormatPCM, 1, 8000, 8)),
			chunk("data", []byte{1, 2}),
		)},
		{name: "mp3 bytes", data: []byte("ID3\x04\x00\x00\x00\x00\x00\x00garbage-garbage-garbage")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeWAV(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestGetWAVInfoInvalid(t *testing.T) {
	_, err := GetWAVInfo([]byte{1, 2, 3})
	assert.Error(t, err)

	invalid := make([]byte, 50)
	copy(invalid[0:4], "FAKE")
	_, err = GetWAVInfo(invalid)
	assert.Error(t, err)
}

package wav

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildWAV(t *testing.T, audioFormat uint16, channels, sampleRate, bitsPerSample int, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	var riffSize [4]byte
	buf.Write(riffSize[:])
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, audioFormat)
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	byteRate := sampleRate * channels * bitsPerSample / 8
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	blockAlign := channels * bitsPerSample / 8
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out
}

func TestDecodePCM16Mono(t *testing.T) {
	var raw bytes.Buffer
	binary.Write(&raw, binary.LittleEndian, int16(16384))
	binary.Write(&raw, binary.LittleEndian, int16(-16384))
	wavBytes := buildWAV(t, fmtPCM, 1, 2000, 16, raw.Bytes())

	samples, sr, err := Decode(wavBytes)
	require.NoError(t, err)
	assert.Equal(t, 2000, sr)
	require.Len(t, samples, 2)
	assert.InDelta(t, 0.5, samples[0], 1e-4)
	assert.InDelta(t, -0.5, samples[1], 1e-4)
}

func TestDecodePCM16StereoDownmix(t *testing.T) {
	var raw bytes.Buffer
	binary.Write(&raw, binary.LittleEndian, int16(16384))
	binary.Write(&raw, binary.LittleEndian, int16(-16384))
	wavBytes := buildWAV(t, fmtPCM, 2, 8000, 16, raw.Bytes())

	samples, sr, err := Decode(wavBytes)
	require.NoError(t, err)
	assert.Equal(t, 8000, sr)
	require.Len(t, samples, 1)
	assert.InDelta(t, 0.0, samples[0], 1e-4)
}

func TestDecodeUint8Bias128(t *testing.T) {
	raw := []byte{128, 255, 0}
	wavBytes := buildWAV(t, fmtPCM, 1, 2000, 8, raw)

	samples, _, err := Decode(wavBytes)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.InDelta(t, 0.0, samples[0], 1e-6)
	assert.InDelta(t, 127.0/128.0, samples[1], 1e-6)
	assert.InDelta(t, -1.0, samples[2], 1e-6)
}

func TestDecodeFloat32(t *testing.T) {
	var raw bytes.Buffer
	binary.Write(&raw, binary.LittleEndian, math.Float32bits(0.25))
	wavBytes := buildWAV(t, fmtFloat, 1, 2000, 32, raw.Bytes())

	samples, _, err := Decode(wavBytes)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.InDelta(t, 0.25, samples[0], 1e-6)
}

func TestDecodeUnsupportedDType(t *testing.T) {
	wavBytes := buildWAV(t, fmtPCM, 1, 2000, 24, []byte{0, 0, 0})
	_, _, err := Decode(wavBytes)
	assert.ErrorIs(t, err, ErrUnsupportedDType)
}

func TestDecodeRejectsNonRIFF(t *testing.T) {
	_, _, err := Decode([]byte("not a wav file at all"))
	assert.Error(t, err)
}

// Package wav decodes the small family of PCM WAV encodings the
// analyzer accepts from the media collaborator, downmixing
// multi-channel audio to mono.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedDType is returned for any WAV sample format other than
// PCM16, PCM32, unsigned 8-bit PCM, or IEEE float32.
var ErrUnsupportedDType = errors.New("unsupported wav dtype")

const (
	fmtPCM   = 1
	fmtFloat = 3
)

// Decode parses a RIFF/WAVE byte stream and returns mono float32 samples
// in [-1, 1] alongside the file's sample rate.
func Decode(data []byte) ([]float32, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("not a RIFF/WAVE file")
	}

	var (
		audioFormat   uint16
		numChannels   int
		sampleRate    int
		bitsPerSample int
		dataBytes     []byte
		sawFmt        bool
	)

	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too small: %d bytes", chunkSize)
			}
			fc := data[body : body+chunkSize]
			audioFormat = binary.LittleEndian.Uint16(fc[0:2])
			numChannels = int(binary.LittleEndian.Uint16(fc[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(fc[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(fc[14:16]))
			sawFmt = true
		case "data":
			dataBytes = data[body : body+chunkSize]
		}

		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}

	if !sawFmt || dataBytes == nil {
		return nil, 0, errors.New("missing fmt or data chunk")
	}
	if numChannels < 1 {
		numChannels = 1
	}

	samples, err := decodeSamples(dataBytes, audioFormat, bitsPerSample, numChannels)
	if err != nil {
		return nil, 0, err
	}
	return samples, sampleRate, nil
}

func decodeSamples(raw []byte, audioFormat uint16, bits, channels int) ([]float32, error) {
	switch {
	case audioFormat == fmtPCM && bits == 16:
		return downmix(raw, channels, 2, func(b []byte) float32 {
			return float32(int16(binary.LittleEndian.Uint16(b))) / 32768.0
		})
	case audioFormat == fmtPCM && bits == 32:
		return downmix(raw, channels, 4, func(b []byte) float32 {
			return float32(int32(binary.LittleEndian.Uint32(b))) / 2147483648.0
		})
	case audioFormat == fmtPCM && bits == 8:
		return downmix(raw, channels, 1, func(b []byte) float32 {
			return (float32(b[0]) - 128.0) / 128.0
		})
	case audioFormat == fmtFloat && bits == 32:
		return downmix(raw, channels, 4, func(b []byte) float32 {
			bits := binary.LittleEndian.Uint32(b)
			return math.Float32frombits(bits)
		})
	default:
		return nil, ErrUnsupportedDType
	}
}

// downmix reads channels interleaved frames of bytesPerSample each and
// averages them down to mono.
func downmix(raw []byte, channels, bytesPerSample int, decode func([]byte) float32) ([]float32, error) {
	frameBytes := channels * bytesPerSample
	if frameBytes == 0 {
		return nil, errors.New("invalid wav frame size")
	}
	numFrames := len(raw) / frameBytes
	out := make([]float32, numFrames)
	for i := 0; i < numFrames; i++ {
		base := i * frameBytes
		var sum float32
		for c := 0; c < channels; c++ {
			off := base + c*bytesPerSample
			sum += decode(raw[off : off+bytesPerSample])
		}
		out[i] = sum / float32(channels)
	}
	return out, nil
}

package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestAnalyzeRequestRequiresPositiveSampleRate(t *testing.T) {
	v := validator.New()
	req := AnalyzeRequest{SampleRate: 0, Samples: []float32{1, 2, 3}}
	err := v.Struct(req)
	assert.Error(t, err)
}

func TestAnalyzeRequestRequiresSamples(t *testing.T) {
	v := validator.New()
	req := AnalyzeRequest{SampleRate: 2000}
	err := v.Struct(req)
	assert.Error(t, err)
}

func TestAnalyzeRequestValidHashOptional(t *testing.T) {
	v := validator.New()
	req := AnalyzeRequest{SampleRate: 2000, Samples: []float32{1, 2}}
	assert.NoError(t, v.Struct(req))
}

func TestAnalyzeRequestRejectsMalformedHash(t *testing.T) {
	v := validator.New()
	req := AnalyzeRequest{SampleRate: 2000, Samples: []float32{1, 2}, Hash: "not-hex"}
	assert.Error(t, v.Struct(req))
}

func TestAnalyzeRequestAccepts32CharHash(t *testing.T) {
	v := validator.New()
	req := AnalyzeRequest{
		SampleRate: 2000,
		Samples:    []float32{1, 2},
		Hash:       "0123456789abcdef0123456789abcdef"[:32],
	}
	assert.NoError(t, v.Struct(req))
}

func TestMediaAnalyzeRequestRequiresMediaID(t *testing.T) {
	v := validator.New()
	req := MediaAnalyzeRequest{}
	assert.Error(t, v.Struct(req))
}

func TestMediaAnalyzeRequestValid(t *testing.T) {
	v := validator.New()
	req := MediaAnalyzeRequest{MediaID: "abc123"}
	assert.NoError(t, v.Struct(req))
}

// Command pcganalyze runs the PCG pipeline against a local WAV file from
// the command line, for spot-checking recordings without standing up
// the HTTP service.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/gvasels/pcg-analyzer/internal/analysis"
	"github.com/gvasels/pcg-analyzer/internal/wav"
)

func main() {
	var (
		file        = pflag.StringP("file", "f", "", "path to a WAV recording")
		sampleRate  = pflag.IntP("sample-rate", "r", 0, "override the sample rate from the WAV header")
		useHSMM     = pflag.Bool("hsmm", true, "use HSMM segmentation instead of the heuristic event extractor")
		qualityOnly = pflag.Bool("quality-only", false, "run only the quality gate, not the full report")
		asJSON      = pflag.Bool("json", true, "print the result as JSON")
	)
	pflag.Parse()

	// No Echo RequestID middleware exists on this path, so mint our own
	// trace ID to tag log lines with, the way a request ID would in the
	// HTTP service.
	logger := log.Default().With("requestID", uuid.NewString())

	if *file == "" {
		logger.Fatal("--file is required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal("failed to read file", "err", err)
	}

	samples, sr, err := wav.Decode(data)
	if err != nil {
		logger.Fatal("failed to decode wav", "err", err)
	}
	if *sampleRate > 0 {
		sr = *sampleRate
	}

	analyzer := analysis.NewAnalyzer()

	var result any
	if *qualityOnly {
		result, err = analyzer.QualityPCM(sr, samples)
	} else {
		var stages analysis.StageTimings
		result, stages, err = analyzer.AnalyzePCM(sr, samples, *useHSMM)
		if err == nil {
			for name, d := range stages {
				logger.Debug("stage timing", "stage", name, "duration", d)
			}
		}
	}
	if err != nil {
		logger.Fatal("analysis failed", "err", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			logger.Fatal("failed to encode result", "err", err)
		}
		return
	}
	fmt.Printf("%+v\n", result)
}

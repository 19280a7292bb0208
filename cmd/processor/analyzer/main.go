// Command analyzer is the Step Functions worker that runs HSMM
// segmentation against a recording already uploaded to S3, returning a
// compact summary so the state machine can branch without shipping the
// full report through its payload.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/gvasels/pcg-analyzer/internal/analysis"
	"github.com/gvasels/pcg-analyzer/internal/wav"
)

// Event represents the input from Step Functions.
type Event struct {
	RecordingID string `json:"recordingId"`
	S3Key       string `json:"s3Key"`
	BucketName  string `json:"bucketName"`
}

// Response represents the output to Step Functions.
type Response struct {
	HRBpm      float64 `json:"hrBpm,omitempty"`
	HRSalience float64 `json:"hrSalience,omitempty"`
	NumS1      int     `json:"numS1,omitempty"`
	NumS2      int     `json:"numS2,omitempty"`
	SegQuality float64 `json:"segQuality,omitempty"`
	Segmented  bool    `json:"segmented"`
	Error      string  `json:"error,omitempty"`
}

const maxDownloadBytes = 200 * 1024 * 1024

var s3Client *s3.Client
var analyzer *analysis.Analyzer

func init() {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		panic(fmt.Sprintf("failed to load AWS config: %v", err))
	}
	s3Client = s3.NewFromConfig(cfg)
	analyzer = analysis.NewAnalyzer()
}

func handleRequest(ctx context.Context, event Event) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, 25*time.Second)
	defer cancel()

	result, err := s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &event.BucketName,
		Key:    &event.S3Key,
	})
	if err != nil {
		return &Response{Error: fmt.Sprintf("failed to download from S3: %v", err)}, nil
	}
	defer result.Body.Close()

	data, err := io.ReadAll(io.LimitReader(result.Body, maxDownloadBytes+1))
	if err != nil {
		return &Response{Error: fmt.Sprintf("failed to read object body: %v", err)}, nil
	}
	if len(data) > maxDownloadBytes {
		return &Response{Error: "recording exceeds maximum size for the segmentation worker"}, nil
	}

	samples, sr, err := wav.Decode(data)
	if err != nil {
		return &Response{Error: fmt.Sprintf("wav decode failed: %v", err)}, nil
	}

	seg, err := analyzer.SegmentHSMM(sr, samples)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &Response{Error: "segmentation timed out"}, nil
		}
		return &Response{Error: fmt.Sprintf("segmentation failed: %v", err)}, nil
	}

	return &Response{
		HRBpm:      seg.HRBpm,
		HRSalience: seg.HRSalience,
		NumS1:      len(seg.Events.S1),
		NumS2:      len(seg.Events.S2),
		SegQuality: seg.SQI.SegQuality,
		Segmented:  true,
	}, nil
}

func main() {
	lambda.Start(handleRequest)
}

package models

// QualityMetrics are the diagnostic numbers behind a QualityReport verdict.
type QualityMetrics struct {
	DurationSec float64  `json:"durationSec"`
	SNRDb       float64  `json:"snrDb"`
	LowBandProp float64  `json:"lowBandProp"`
	Periodicity float64  `json:"periodicity"`
	CycleCV     float64  `json:"cycleCV"`
	HRBpmEst    *float64 `json:"hrBpmEst,omitempty"`
	SampleRate  int      `json:"sr"`
}

// QualityReport is the recording-quality verdict for a buffer.
type QualityReport struct {
	IsHeart    bool           `json:"isHeart"`
	QualityOk  bool           `json:"qualityOk"`
	Score      float64        `json:"score"`
	Issues     []string       `json:"issues"`
	Metrics    QualityMetrics `json:"metrics"`
}

// EventList holds the S1/S2 sample-index event positions in the
// resampled (2kHz) domain.
type EventList struct {
	S1 []int `json:"s1"`
	S2 []int `json:"s2"`
}

// SQI is the segmentation quality-index bundle returned by SegmentHSMM.
type SQI struct {
	HRSalience  float64  `json:"hrSalience"`
	CycleCV     *float64 `json:"cycleCV,omitempty"`
	SegQuality  float64  `json:"segQuality"`
	SNRDbApprox float64  `json:"snrDbApprox"`
}

// SegmentResult is the segment_hsmm operation's output.
type SegmentResult struct {
	SampleRate int       `json:"sampleRate"`
	FrameRate  float64   `json:"frameRate"`
	HRBpm      float64   `json:"hrBpm"`
	HRSalience float64   `json:"hrSalience"`
	Events     EventList `json:"events"`
	RRMeanSec  *float64  `json:"rrMeanSec,omitempty"`
	RRStdSec   *float64  `json:"rrStdSec,omitempty"`
	SystoleMs  *float64  `json:"systoleMs,omitempty"`
	DiastoleMs *float64  `json:"diastoleMs,omitempty"`
	DSRatio    *float64  `json:"dsRatio,omitempty"`
	SQI        SQI       `json:"sqi"`
}

// QC is the top-level report's quality-control summary.
type QC struct {
	SNRDb                 float64 `json:"snrDb"`
	MotionPct             float64 `json:"motionPct"`
	UsablePct             float64 `json:"usablePct"`
	ContactNoiseSuspected bool    `json:"contactNoiseSuspected"`
}

// Respiration is the respiration-linked split typing bundle.
type Respiration struct {
	RespRate      *float64 `json:"respRate,omitempty"`
	RespDominance *float64 `json:"respDominance,omitempty"`
	S2SplitType   *string  `json:"s2SplitType,omitempty"`
	S2SplitCorr   *float64 `json:"s2SplitCorr,omitempty"`
}

// AdditionalSounds bundles S3/S4 and click probabilities.
type AdditionalSounds struct {
	S3Prob                float64 `json:"s3Prob"`
	S4Prob                float64 `json:"s4Prob"`
	S3Cycles              int     `json:"s3Cycles"`
	S4Cycles              int     `json:"s4Cycles"`
	EjectionClickProb     float64 `json:"ejectionClickProb"`
	MidSystolicClickProb  float64 `json:"midSystolicClickProb"`
	OpeningSnapProb       float64 `json:"openingSnapProb"`
}

// MurmurDescriptor is the murmur summary for one cycle phase.
type MurmurDescriptor struct {
	Present  bool    `json:"present"`
	Extent   string  `json:"extent,omitempty"`
	Shape    string  `json:"shape,omitempty"`
	PitchHz  float64 `json:"pitchHz,omitempty"`
	BandRatio float64 `json:"bandRatio,omitempty"`
	Coverage float64 `json:"coverage"`
}

// Murmur bundles both phase descriptors with the overall grade/confidence.
type Murmur struct {
	Present    bool             `json:"present"`
	Phase      string           `json:"phase"`
	Systolic   MurmurDescriptor `json:"systolic"`
	Diastolic  MurmurDescriptor `json:"diastolic"`
	GradeProxy int              `json:"gradeProxy"`
	Confidence float64          `json:"confidence"`
}

// RhythmStats is the RR-variability summary.
type RhythmStats struct {
	RRCV            *float64 `json:"rrCV,omitempty"`
	PNN50           *float64 `json:"pNN50,omitempty"`
	SampleEntropy   *float64 `json:"sampleEntropy,omitempty"`
	PoincareSD1     *float64 `json:"poincareSD1,omitempty"`
	PoincareSD2     *float64 `json:"poincareSD2,omitempty"`
	AFSuspected     bool     `json:"afSuspected"`
	EctopySuspected bool     `json:"ectopySuspected"`
}

// Extras bundles the three derived-feature groups of a Report.
type Extras struct {
	Respiration      Respiration      `json:"respiration"`
	AdditionalSounds AdditionalSounds `json:"additionalSounds"`
	Murmur           Murmur           `json:"murmur"`
	Rhythm           RhythmStats      `json:"rhythm"`
}

// Report is the top-level analyze_pcm/analyze_media result.
type Report struct {
	DurationSec         float64  `json:"durationSec"`
	HRBpm               *float64 `json:"hrBpm,omitempty"`
	RRMeanSec           *float64 `json:"rrMeanSec,omitempty"`
	RRStdSec            *float64 `json:"rrStdSec,omitempty"`
	SystoleMs           *float64 `json:"systoleMs,omitempty"`
	DiastoleMs          *float64 `json:"diastoleMs,omitempty"`
	DSRatio             *float64 `json:"dsRatio,omitempty"`
	S1DurMs             *float64 `json:"s1DurMs,omitempty"`
	S2DurMs             *float64 `json:"s2DurMs,omitempty"`
	S2SplitMs           *float64 `json:"s2SplitMs,omitempty"`
	A2OsMs              *float64 `json:"a2OsMs,omitempty"`
	S1Intensity         *float64 `json:"s1Intensity,omitempty"`
	S2Intensity         *float64 `json:"s2Intensity,omitempty"`
	SysHighFreqEnergy   *float64 `json:"sysHighFreqEnergy,omitempty"`
	DiaHighFreqEnergy   *float64 `json:"diaHighFreqEnergy,omitempty"`
	SysShape            *string  `json:"sysShape,omitempty"`
	QC                  QC       `json:"qc"`
	Events              EventList `json:"events"`
	Extras              Extras   `json:"extras"`
}

// SpectralFeatureReport is the supplemented whole-buffer diagnostic
// bundle exposed for operators/debugging (not part of Report).
type SpectralFeatureReport struct {
	RMS               float64 `json:"rms"`
	ZeroCrossingRate  float64 `json:"zeroCrossingRate"`
	SpectralCentroid  float64 `json:"spectralCentroid"`
	SpectralBandwidth float64 `json:"spectralBandwidth"`
	Rolloff95         float64 `json:"rolloff95"`
	SpectralFlatness  float64 `json:"spectralFlatness"`
	SpectralFlux      float64 `json:"spectralFlux"`
	Peak              float64 `json:"peak"`
	CrestFactor       float64 `json:"crestFactor"`
}

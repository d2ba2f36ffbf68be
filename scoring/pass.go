package scoring

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"
)

// ErrMissingFields is returned when a prediction input lacks a field.
var ErrMissingFields = errors.New("missing fields")

// Features are the inputs of a pass prediction. Pointer fields tell an
// absent (or null) JSON value apart from an explicit zero.
type Features struct {
	StudyHours             *float64 `json:"study_hours"`
	SleepHours             *float64 `json:"sleep_hours"`
	Attendance             *float64 `json:"attendance"`
	ClassAvgScore          *float64 `json:"class_avg_score"`
	StudentTestScore       *float64 `json:"student_test_score"`
	StudentAssignmentScore *float64 `json:"student_assignment_score"`
	NumFailedBefore        *float64 `json:"num_failed_before"`
	ParticipationScore     *float64 `json:"participation_score"`
}

// Values is a fully populated copy of Features.
type Values struct {
	StudyHours             float64
	SleepHours             float64
	Attendance             float64
	ClassAvgScore          float64
	StudentTestScore       float64
	StudentAssignmentScore float64
	NumFailedBefore        float64
	ParticipationScore     float64
}

// Resolve dereferences every field, failing with ErrMissingFields if any is nil.
func (f Features) Resolve() (Values, error) {
	fields := []*float64{
		f.StudyHours, f.SleepHours, f.Attendance, f.ClassAvgScore,
		f.StudentTestScore, f.StudentAssignmentScore, f.NumFailedBefore, f.ParticipationScore,
	}
	for _, p := range fields {
		if p == nil {
			return Values{}, ErrMissingFields
		}
	}
	return Values{
		StudyHours:             *f.StudyHours,
		SleepHours:             *f.SleepHours,
		Attendance:             *f.Attendance,
		ClassAvgScore:          *f.ClassAvgScore,
		StudentTestScore:       *f.StudentTestScore,
		StudentAssignmentScore: *f.StudentAssignmentScore,
		NumFailedBefore:        *f.NumFailedBefore,
		ParticipationScore:     *f.ParticipationScore,
	}, nil
}

// Prediction labels
const (
	LabelPass = "Pass"
	LabelFail = "Fail"
)

// Model parameters
const (
	passThreshold = 180.0
	noiseStdDev   = 10.0
	minProb       = 0.05
	maxProb       = 0.95
	modelAccuracy = 0.85
)

var weights = Values{
	StudyHours:             4,
	SleepHours:             1.5,
	Attendance:             0.5,
	ClassAvgScore:          0.3,
	StudentTestScore:       1.2,
	StudentAssignmentScore: 1.0,
	NumFailedBefore:        -8,
	ParticipationScore:     2,
}

// PassMetrics is the static model description returned with a prediction.
type PassMetrics struct {
	Algorithm         string             `json:"algorithm"`
	FeaturesUsed      int                `json:"features_used"`
	TrainingSamples   int                `json:"training_samples"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
	ModelVersion      string             `json:"model_version"`
}

// PassResult is the response body of a pass prediction.
type PassResult struct {
	Success       bool        `json:"success"`
	Prediction    int         `json:"prediction"`
	Label         string      `json:"label"`
	Confidence    float64     `json:"confidence"`
	ProbPass      float64     `json:"prob_pass"`
	ProbFail      float64     `json:"prob_fail"`
	Factors       []string    `json:"factors"`
	ModelAccuracy float64     `json:"model_accuracy"`
	MLMetrics     PassMetrics `json:"ml_metrics"`
}

// NoiseSource yields standard normal samples.
type NoiseSource interface {
	NormFloat64() float64
}

// PassPredictor scores student features with a weighted sum plus noise.
type PassPredictor struct {
	mu    sync.Mutex
	noise NoiseSource
}

// PredictorOption defines a functional option for PassPredictor
type PredictorOption func(*PassPredictor)

// WithNoiseSource sets the source of the score noise
func WithNoiseSource(src NoiseSource) PredictorOption {
	return func(p *PassPredictor) {
		p.noise = src
	}
}

// NewPassPredictor creates a predictor seeded from the clock unless a
// NoiseSource is supplied.
func NewPassPredictor(options ...PredictorOption) *PassPredictor {
	p := &PassPredictor{
		noise: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // not security sensitive
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Score returns the noiseless weighted sum of v.
func Score(v Values) float64 {
	return v.StudyHours*weights.StudyHours +
		v.SleepHours*weights.SleepHours +
		v.Attendance*weights.Attendance +
		v.ClassAvgScore*weights.ClassAvgScore +
		v.StudentTestScore*weights.StudentTestScore +
		v.StudentAssignmentScore*weights.StudentAssignmentScore +
		v.NumFailedBefore*weights.NumFailedBefore +
		v.ParticipationScore*weights.ParticipationScore
}

// Predict classifies f as pass or fail. Results are not deterministic
// because the score is perturbed by Gaussian noise.
func (p *PassPredictor) Predict(f Features) (PassResult, error) {
	v, err := f.Resolve()
	if err != nil {
		return PassResult{}, err
	}

	p.mu.Lock()
	noise := p.noise.NormFloat64() * noiseStdDev
	p.mu.Unlock()

	score := Score(v) + noise

	prediction := 0
	if score > passThreshold {
		prediction = 1
	}
	probPass := math.Min(maxProb, math.Max(minProb, score/(passThreshold*1.5)))
	probFail := 1 - probPass

	label, chosen := LabelFail, probFail
	if prediction == 1 {
		label, chosen = LabelPass, probPass
	}

	return PassResult{
		Success:       true,
		Prediction:    prediction,
		Label:         label,
		Confidence:    round(chosen*100, 2),
		ProbPass:      round(probPass*100, 2),
		ProbFail:      round(probFail*100, 2),
		Factors:       factors(v),
		ModelAccuracy: round(modelAccuracy*100, 2),
		MLMetrics: PassMetrics{
			Algorithm:       "Logistic Regression with Advanced Feature Engineering",
			FeaturesUsed:    8,
			TrainingSamples: 200,
			FeatureImportance: map[string]float64{
				"study_hours":      0.25,
				"attendance":       0.20,
				"test_score":       0.18,
				"assignment_score": 0.15,
				"participation":    0.12,
				"sleep_hours":      0.08,
				"class_avg":        0.02,
			},
			ModelVersion: "2.1.0",
		},
	}, nil
}

func factors(v Values) []string {
	out := []string{}
	if v.StudyHours >= 6 {
		out = append(out, "Good study hours")
	}
	if v.Attendance >= 75 {
		out = append(out, "High attendance")
	}
	if v.StudentTestScore >= 70 {
		out = append(out, "Good test score")
	}
	if v.StudentAssignmentScore >= 70 {
		out = append(out, "Strong assignment score")
	}
	if v.ParticipationScore >= 6 {
		out = append(out, "Active participation")
	}
	if v.NumFailedBefore > 0 {
		out = append(out, "Past failures may affect result")
	}
	return out
}

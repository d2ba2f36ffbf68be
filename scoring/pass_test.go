package scoring

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNoise always returns the same standard normal sample.
type fixedNoise float64

func (n fixedNoise) NormFloat64() float64 { return float64(n) }

func ptr(v float64) *float64 { return &v }

func goodStudent() Features {
	return Features{
		StudyHours:             ptr(6),
		SleepHours:             ptr(7.5),
		Attendance:             ptr(80),
		ClassAvgScore:          ptr(70),
		StudentTestScore:       ptr(75),
		StudentAssignmentScore: ptr(72),
		NumFailedBefore:        ptr(0),
		ParticipationScore:     ptr(7),
	}
}

func zeroStudent() Features {
	return Features{
		StudyHours:             ptr(0),
		SleepHours:             ptr(0),
		Attendance:             ptr(0),
		ClassAvgScore:          ptr(0),
		StudentTestScore:       ptr(0),
		StudentAssignmentScore: ptr(0),
		NumFailedBefore:        ptr(0),
		ParticipationScore:     ptr(0),
	}
}

func TestScore(t *testing.T) {
	v, err := goodStudent().Resolve()
	require.NoError(t, err)
	assert.InDelta(t, 272.25, Score(v), 1e-9)

	v.NumFailedBefore = 2
	assert.InDelta(t, 256.25, Score(v), 1e-9)
}

func TestPassPredictor_Pass(t *testing.T) {
	p := NewPassPredictor(WithNoiseSource(fixedNoise(0)))

	res, err := p.Predict(goodStudent())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Prediction)
	assert.Equal(t, LabelPass, res.Label)
	assert.InDelta(t, 95, res.ProbPass, 0.001)
	assert.InDelta(t, 5, res.ProbFail, 0.001)
	assert.InDelta(t, 95, res.Confidence, 0.001)
	assert.InDelta(t, 85, res.ModelAccuracy, 0.001)
	assert.Equal(t, []string{
		"Good study hours",
		"High attendance",
		"Good test score",
		"Strong assignment score",
		"Active participation",
	}, res.Factors)
	assert.Equal(t, 8, res.MLMetrics.FeaturesUsed)
	assert.Equal(t, "2.1.0", res.MLMetrics.ModelVersion)
}

func TestPassPredictor_Fail(t *testing.T) {
	p := NewPassPredictor(WithNoiseSource(fixedNoise(0)))

	res, err := p.Predict(zeroStudent())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Prediction)
	assert.Equal(t, LabelFail, res.Label)
	assert.InDelta(t, 5, res.ProbPass, 0.001)
	assert.InDelta(t, 95, res.ProbFail, 0.001)
	assert.InDelta(t, 95, res.Confidence, 0.001)
	assert.NotNil(t, res.Factors)
	assert.Empty(t, res.Factors)
}

func TestPassPredictor_ProbabilityScale(t *testing.T) {
	// 270 attendance contributes 135, half of 1.5 * threshold
	f := zeroStudent()
	f.Attendance = ptr(270)

	res, err := NewPassPredictor(WithNoiseSource(fixedNoise(0))).Predict(f)
	require.NoError(t, err)

	assert.Equal(t, LabelFail, res.Label)
	assert.InDelta(t, 50, res.ProbPass, 0.001)
	assert.InDelta(t, 50, res.ProbFail, 0.001)
	assert.InDelta(t, 100, res.ProbPass+res.ProbFail, 0.1)
}

func TestPassPredictor_NoiseMovesThreshold(t *testing.T) {
	// 175 sits just below the threshold; +10 noise pushes it over
	f := zeroStudent()
	f.Attendance = ptr(350)

	res, err := NewPassPredictor(WithNoiseSource(fixedNoise(0))).Predict(f)
	require.NoError(t, err)
	assert.Equal(t, LabelFail, res.Label)

	res, err = NewPassPredictor(WithNoiseSource(fixedNoise(1))).Predict(f)
	require.NoError(t, err)
	assert.Equal(t, LabelPass, res.Label)
}

func TestPassPredictor_PastFailuresFactor(t *testing.T) {
	f := zeroStudent()
	f.NumFailedBefore = ptr(1)

	res, err := NewPassPredictor(WithNoiseSource(fixedNoise(0))).Predict(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"Past failures may affect result"}, res.Factors)
}

func TestPassPredictor_MissingFields(t *testing.T) {
	f := goodStudent()
	f.ParticipationScore = nil

	_, err := NewPassPredictor().Predict(f)
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestFeatures_DecodeDistinguishesZeroFromMissing(t *testing.T) {
	var f Features
	require.NoError(t, json.Unmarshal([]byte(`{
		"study_hours": 0, "sleep_hours": 0, "attendance": 0, "class_avg_score": 0,
		"student_test_score": 0, "student_assignment_score": 0, "num_failed_before": 0,
		"participation_score": 0
	}`), &f))
	_, err := f.Resolve()
	require.NoError(t, err)

	var missing Features
	require.NoError(t, json.Unmarshal([]byte(`{"study_hours": 6, "sleep_hours": null}`), &missing))
	_, err = missing.Resolve()
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestPassPredictor_ConcurrentUse(t *testing.T) {
	p := NewPassPredictor()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.Predict(goodStudent())
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, res.ProbPass, 5.0)
			assert.LessOrEqual(t, res.ProbPass, 95.0)
		}()
	}
	wg.Wait()
}

package scoring

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/isdmx/portfolio/cache"
	"github.com/isdmx/portfolio/config"
)

// Result TTLs used when the configuration leaves them unset
const (
	DefaultMoodTTL       = 600 * time.Second
	DefaultPredictionTTL = 1800 * time.Second
)

// Service memoizes analyzer and predictor results in a shared cache.
type Service struct {
	logger        *zap.Logger
	mood          *MoodAnalyzer
	pass          *PassPredictor
	cache         *cache.Cache[any]
	moodTTL       time.Duration
	predictionTTL time.Duration
}

// NewService creates a Service. Non-positive TTLs select the defaults.
func NewService(logger *zap.Logger, c *cache.Cache[any], mood *MoodAnalyzer, pass *PassPredictor, moodTTL, predictionTTL time.Duration) *Service {
	if moodTTL <= 0 {
		moodTTL = DefaultMoodTTL
	}
	if predictionTTL <= 0 {
		predictionTTL = DefaultPredictionTTL
	}
	return &Service{
		logger:        logger,
		mood:          mood,
		pass:          pass,
		cache:         c,
		moodTTL:       moodTTL,
		predictionTTL: predictionTTL,
	}
}

// NewServiceFromConfig creates a Service with the TTLs of cfg.
func NewServiceFromConfig(logger *zap.Logger, cfg *config.Config, c *cache.Cache[any], mood *MoodAnalyzer, pass *PassPredictor) *Service {
	return NewService(logger, c, mood, pass, cfg.MoodTTL(), cfg.PredictionTTL())
}

// AnalyzeMood returns the analysis of text, served from the cache when the
// same text was analyzed within the mood TTL. The bool reports a cache hit.
func (s *Service) AnalyzeMood(ctx context.Context, text string) (MoodResult, bool, error) {
	if text == "" {
		return MoodResult{}, false, ErrEmptyText
	}

	key := cache.TextKey(text)
	v, hit, err := s.cache.GetOrCompute(ctx, key, s.moodTTL, func(context.Context) (any, error) {
		return s.mood.Analyze(text)
	})
	if err != nil {
		return MoodResult{}, false, err
	}

	res, ok := v.(MoodResult)
	if !ok {
		return MoodResult{}, false, fmt.Errorf("unexpected cached value %T for %s", v, key)
	}
	s.logger.Debug("mood analysis served",
		zap.Bool("cache_hit", hit),
		zap.String("mood", res.Mood),
		zap.Int("text_len", len(text)))
	return res, hit, nil
}

// PredictPass returns the prediction for f. Identical inputs within the
// prediction TTL return the first, cached, result. The bool reports a cache hit.
func (s *Service) PredictPass(ctx context.Context, f Features) (PassResult, bool, error) {
	values, err := f.Resolve()
	if err != nil {
		return PassResult{}, false, err
	}

	key := cache.PredictionKey(cache.PredictionFields{
		StudyHours:             values.StudyHours,
		SleepHours:             values.SleepHours,
		Attendance:             values.Attendance,
		ClassAvgScore:          values.ClassAvgScore,
		StudentTestScore:       values.StudentTestScore,
		StudentAssignmentScore: values.StudentAssignmentScore,
		NumFailedBefore:        values.NumFailedBefore,
		ParticipationScore:     values.ParticipationScore,
	})
	v, hit, err := s.cache.GetOrCompute(ctx, key, s.predictionTTL, func(context.Context) (any, error) {
		return s.pass.Predict(f)
	})
	if err != nil {
		return PassResult{}, false, err
	}

	res, ok := v.(PassResult)
	if !ok {
		return PassResult{}, false, fmt.Errorf("unexpected cached value %T for %s", v, key)
	}
	s.logger.Debug("pass prediction served",
		zap.Bool("cache_hit", hit),
		zap.String("label", res.Label))
	return res, hit, nil
}

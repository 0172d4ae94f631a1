package hmm

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
	"github.com/YuminosukeSato/hmmgo/pkg/log"
)

func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var warnings []error
	prev := errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(prev) })
	return &warnings
}

func TestTrainRecoversSeparatedRegimes(t *testing.T) {
	truth := separatedModel(t)
	obs, _ := GenerateSequence(truth, 200, 7)

	res, err := Train(obs, 2, 50, 1e-6, 42)
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Equal(t, StatusConverged, res.Status)
	assert.Equal(t, len(res.LogLikelihoods), res.Iterations)
	assert.LessOrEqual(t, res.Iterations, 50)

	means := []float64{res.Model.Emission(0).Mean, res.Model.Emission(1).Mean}
	sort.Float64s(means)
	assert.InDelta(t, -5.0, means[0], 1.0)
	assert.InDelta(t, 5.0, means[1], 1.0)

	assert.NoError(t, res.Model.Validate(1e-5))
}

func TestTrainLogLikelihoodNonDecreasing(t *testing.T) {
	truth := threeStateModel(t)
	obs, _ := GenerateSequence(truth, 300, 21)

	res, err := Train(obs, 3, 40, 0, 1)
	require.NoError(t, err)
	require.Len(t, res.LogLikelihoods, 40, "zero tolerance never converges")
	assert.Equal(t, StatusExhausted, res.Status)

	for k := 1; k < len(res.LogLikelihoods); k++ {
		assert.GreaterOrEqual(t, res.LogLikelihoods[k], res.LogLikelihoods[k-1]-1e-6, "iteration %d", k+1)
	}
}

func TestTrainDeterministic(t *testing.T) {
	obs, _ := GenerateSequence(threeStateModel(t), 120, 99)

	a, err := Train(obs, 3, 25, 1e-6, 5)
	require.NoError(t, err)
	b, err := Train(obs, 3, 25, 1e-6, 5)
	require.NoError(t, err)

	assert.Equal(t, a.Model.Params(), b.Model.Params())
	assert.Equal(t, a.LogLikelihoods, b.LogLikelihoods)
	assert.Equal(t, a.Converged, b.Converged)
}

func TestTrainSingleObservationReturnsInit(t *testing.T) {
	res, err := Train([]float64{0.3}, 2, 10, 1e-6, 42)
	require.NoError(t, err)

	assert.Equal(t, RandomInit(2, 42).Params(), res.Model.Params())
	assert.True(t, res.Converged)
	assert.Equal(t, 2, res.Iterations)
}

func TestTrainZeroIterations(t *testing.T) {
	warnings := captureWarnings(t)

	res, err := Train([]float64{1, 2, 3}, 2, 0, 1e-6, 3)
	require.NoError(t, err)

	assert.Equal(t, StatusExhausted, res.Status)
	assert.False(t, res.Converged)
	assert.Empty(t, res.LogLikelihoods)
	assert.Equal(t, RandomInit(2, 3).Params(), res.Model.Params())
	assert.True(t, math.IsInf(res.FinalLogLikelihood(), -1))
	require.Len(t, *warnings, 1)

	var convErr *errors.ConvergenceWarning
	assert.True(t, errors.As((*warnings)[0], &convErr))
}

func TestTrainErrors(t *testing.T) {
	tests := []struct {
		name  string
		obs   []float64
		n     int
		iters int
		tol   float64
		check func(t *testing.T, err error)
	}{
		{"empty observations", nil, 2, 10, 1e-6, func(t *testing.T, err error) {
			assert.True(t, errors.Is(err, errors.ErrEmptyData))
		}},
		{"zero states", []float64{1, 2}, 0, 10, 1e-6, func(t *testing.T, err error) {
			var v *errors.ValidationError
			assert.True(t, errors.As(err, &v))
		}},
		{"negative iterations", []float64{1, 2}, 2, -1, 1e-6, func(t *testing.T, err error) {
			var v *errors.ValidationError
			assert.True(t, errors.As(err, &v))
		}},
		{"negative tolerance", []float64{1, 2}, 2, 10, -1, func(t *testing.T, err error) {
			var v *errors.ValidationError
			assert.True(t, errors.As(err, &v))
		}},
		{"NaN observation", []float64{1, math.NaN()}, 2, 10, 1e-6, func(t *testing.T, err error) {
			var v *errors.NumericalInstabilityError
			assert.True(t, errors.As(err, &v))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Train(tt.obs, tt.n, tt.iters, tt.tol, 1)
			require.Error(t, err)
			assert.Nil(t, res)
			tt.check(t, err)
		})
	}
}

func TestBaumWelchFromGivenModel(t *testing.T) {
	truth := separatedModel(t)
	obs, _ := GenerateSequence(truth, 100, 8)
	before := truth.Params()

	cfg := DefaultTrainConfig()
	cfg.NStates = 0
	cfg.MaxIterations = 5
	cfg.KeepHistory = true

	res, err := BaumWelch(truth, obs, cfg)
	require.NoError(t, err)
	assert.Equal(t, before, truth.Params(), "the starting model is not modified")
	require.Len(t, res.History, res.Iterations+1)
	assert.Same(t, truth, res.History[0])
	assert.Same(t, res.Model, res.History[len(res.History)-1])

	cfg.NStates = 3
	_, err = BaumWelch(truth, obs, cfg)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestBaumWelchLogging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)

	cfg := DefaultTrainConfig()
	cfg.MaxIterations = 30
	cfg.Logger = logger
	obs, _ := GenerateSequence(separatedModel(t), 80, 4)

	res, err := TrainWithConfig(obs, cfg)
	require.NoError(t, err)

	assert.True(t, logger.ContainsMessage("Starting Baum-Welch training"))
	assert.True(t, logger.ContainsField(log.SamplesKey, 80.0))
	assert.True(t, logger.ContainsField(log.IterationKey, 1.0))
	assert.True(t, logger.ContainsField(log.StatusKey, res.Status.String()))
	assert.True(t, logger.ContainsField(log.ComponentKey, "hmm"))

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	var iterations []map[string]interface{}
	for _, e := range entries {
		if e["message"] == "EM iteration" {
			iterations = append(iterations, e)
		}
	}
	require.Len(t, iterations, res.Iterations)
	// 1回目は前回の対数尤度がないので改善量を出さない
	assert.NotContains(t, iterations[0], log.ImprovementKey)
	assert.Equal(t, 1.0, iterations[0][log.IterationKey])
	if len(iterations) > 1 {
		assert.Contains(t, iterations[1], log.ImprovementKey)
	}
}

func TestTrainStatusString(t *testing.T) {
	assert.Equal(t, "initializing", StatusInitializing.String())
	assert.Equal(t, "iterating", StatusIterating.String())
	assert.Equal(t, "converged", StatusConverged.String())
	assert.Equal(t, "exhausted", StatusExhausted.String())
	assert.Equal(t, "unknown", TrainStatus(42).String())
}

func TestTrainThroughCollapsedSequence(t *testing.T) {
	captureWarnings(t)
	obs, _ := GenerateSequence(separatedModel(t), 60, 11)
	obs[30] = 1e6

	res, err := Train(obs, 2, 20, 1e-6, 42)
	require.NoError(t, err)

	for _, ll := range res.LogLikelihoods {
		assert.False(t, math.IsNaN(ll) || math.IsInf(ll, 0), "log-likelihood %v", ll)
	}
	p := res.Model.Params()
	for _, v := range append(append(append([]float64{}, p.Initial...), p.Means...), p.Variances...) {
		assert.False(t, math.IsNaN(v))
	}
	require.NoError(t, res.Model.Validate(1e-5))

	d := res.Diagnostics
	assert.False(t, d.Clean())
	assert.Positive(t, d.ZeroForwardScales)
	assert.Positive(t, d.ZeroBackwardScales)
	assert.Positive(t, d.ZeroGammaRows)
	assert.Positive(t, d.SkippedInitial)
	assert.Positive(t, d.SkippedEmissions)

	// 何も再推定できないので初期モデルのまま収束する
	assert.True(t, res.Converged)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, RandomInit(2, 42).Params(), p)
}

package hmm

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
)

func TestNewContinuousHMMDimensionErrors(t *testing.T) {
	validTrans := mat.NewDense(2, 2, []float64{0.5, 0.5, 0.5, 0.5})
	validInit := []float64{0.5, 0.5}
	validEm := []GaussianEmission{NewGaussianEmission(0, 1), NewGaussianEmission(1, 1)}

	tests := []struct {
		name      string
		trans     *mat.Dense
		init      []float64
		emissions []GaussianEmission
		axis      int
	}{
		{"transition rows", mat.NewDense(3, 2, nil), validInit, validEm, 0},
		{"transition columns", mat.NewDense(2, 3, nil), validInit, validEm, 1},
		{"initial length", validTrans, []float64{1}, validEm, 0},
		{"emission count", validTrans, validInit, validEm[:1], 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewContinuousHMM(2, tt.trans, tt.init, tt.emissions)
			require.Error(t, err)

			var dimErr *errors.DimensionError
			require.True(t, errors.As(err, &dimErr), "expected DimensionError, got %v", err)
			assert.Equal(t, tt.axis, dimErr.Axis)
			assert.Equal(t, 2, dimErr.Expected)
		})
	}

	assert.Panics(t, func() {
		MustNewContinuousHMM(2, mat.NewDense(1, 1, []float64{1}), validInit, validEm)
	})
}

func TestNewContinuousHMMRejectsNonFinite(t *testing.T) {
	em := []GaussianEmission{NewGaussianEmission(0, 1), NewGaussianEmission(1, 1)}

	_, err := NewContinuousHMM(2, mat.NewDense(2, 2, []float64{math.NaN(), 1, 0.5, 0.5}), []float64{0.5, 0.5}, em)
	var numErr *errors.NumericalInstabilityError
	require.True(t, errors.As(err, &numErr))
	assert.Equal(t, "transition", numErr.Operation)

	_, err = NewContinuousHMM(2, mat.NewDense(2, 2, []float64{0.5, 0.5, 0.5, 0.5}), []float64{math.Inf(1), 0}, em)
	require.True(t, errors.As(err, &numErr))
	assert.Equal(t, "initial", numErr.Operation)
}

func TestNewContinuousHMMCopiesInputs(t *testing.T) {
	trans := mat.NewDense(2, 2, []float64{0.7, 0.3, 0.4, 0.6})
	init := []float64{0.6, 0.4}
	em := []GaussianEmission{{Mean: 0, Variance: 0}, {Mean: 1, Variance: 2}}

	m, err := NewContinuousHMM(2, trans, init, em)
	require.NoError(t, err)

	trans.Set(0, 0, 99)
	init[0] = 99
	assert.Equal(t, 0.7, m.TransitionAt(0, 0))
	assert.Equal(t, 0.6, m.Initial()[0])
	assert.Equal(t, MinVariance, m.Emission(0).Variance, "variance floor applies on construction")

	got := m.Initial()
	got[1] = -1
	assert.Equal(t, 0.4, m.Initial()[1], "accessors must return copies")

	tr := m.Transition()
	tr.Set(1, 1, -1)
	assert.Equal(t, 0.6, m.TransitionAt(1, 1))
}

func TestRandomInit(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		m := RandomInit(n, 42)
		require.Equal(t, n, m.NStates())

		for i, s := range rowSums(m.Transition()) {
			assert.InDelta(t, 1.0, s, 1e-5, "row %d", i)
		}
		sum := 0.0
		for _, p := range m.Initial() {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-5)

		for i, e := range m.Emissions() {
			assert.InDelta(t, (float64(i)-float64(n-1)/2)*2, e.Mean, 1e-12)
			assert.GreaterOrEqual(t, e.Variance, 1.0)
			assert.Less(t, e.Variance, 2.0)
		}
		assert.NoError(t, m.Validate(1e-9))
	}

	assert.Equal(t, RandomInit(3, 7).Params(), RandomInit(3, 7).Params(), "same seed must give the same model")

	assert.PanicsWithError(t, "hmmgo: validation failed for parameter 'n_states': must be at least 1 (got: 0)", func() {
		RandomInit(0, 7)
	})
	assert.NotEqual(t, RandomInit(3, 7).Params(), RandomInit(3, 8).Params())
}

func TestParamsRoundTrip(t *testing.T) {
	m := threeStateModel(t)
	p := m.Params()

	rebuilt, err := NewContinuousHMMFromParams(p)
	require.NoError(t, err)
	assert.Equal(t, p, rebuilt.Params())

	p.Transition[1] = []float64{1, 0}
	_, err = NewContinuousHMMFromParams(p)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestValidate(t *testing.T) {
	good := separatedModel(t)
	assert.NoError(t, good.Validate(1e-9))

	badRow, err := NewContinuousHMM(2,
		mat.NewDense(2, 2, []float64{0.5, 0.6, 0.5, 0.5}),
		[]float64{0.5, 0.5},
		good.Emissions(),
	)
	require.NoError(t, err)
	var valErr *errors.ValidationError
	require.True(t, errors.As(badRow.Validate(1e-9), &valErr))
	assert.Equal(t, "transition[0]", valErr.ParamName)

	badInit, err := NewContinuousHMM(2, good.Transition(), []float64{0.9, 0.5}, good.Emissions())
	require.NoError(t, err)
	require.True(t, errors.As(badInit.Validate(1e-9), &valErr))
	assert.Equal(t, "initial", valErr.ParamName)
}

func TestContinuousHMMString(t *testing.T) {
	s := separatedModel(t).String()
	assert.True(t, strings.HasPrefix(s, "HMM Model Parameters:"))
	assert.Contains(t, s, "Number of states: 2")
	assert.Contains(t, s, "π[1] = 0.5000")
	assert.Contains(t, s, "State 0: μ = -5.0000, σ² = 1.0000")
}

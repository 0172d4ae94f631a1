package hmm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
)

func TestViterbiRecoversStates(t *testing.T) {
	m := separatedModel(t)
	obs, states := GenerateSequence(m, 150, 13)

	path, err := Viterbi(m, obs)
	require.NoError(t, err)
	require.Len(t, path, len(obs))

	matches := 0
	for i, s := range path {
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, m.NStates())
		if s == states[i] {
			matches++
		}
	}
	assert.GreaterOrEqual(t, float64(matches)/float64(len(obs)), 0.95)
}

func TestViterbiScoreMatchesEnumeration(t *testing.T) {
	m := threeStateModel(t)
	obs := []float64{0.3, -1.7, 1.2}

	path, score, err := ViterbiWithScore(m, obs)
	require.NoError(t, err)

	// 全 3^3 経路を列挙して最大の同時対数確率を求める
	best, bestPath := math.Inf(-1), []int(nil)
	n := m.NStates()
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			for c := 0; c < n; c++ {
				q := []int{a, b, c}
				lp := math.Log(m.Initial()[a]) + m.Emission(a).LogDensity(obs[0])
				for k := 1; k < len(q); k++ {
					lp += math.Log(m.TransitionAt(q[k-1], q[k])) + m.Emission(q[k]).LogDensity(obs[k])
				}
				if lp > best {
					best, bestPath = lp, q
				}
			}
		}
	}
	assert.InDelta(t, best, score, 1e-9)
	assert.Equal(t, bestPath, path)
}

func TestViterbiTiesPreferLowestIndex(t *testing.T) {
	same := NewGaussianEmission(0, 1)
	m, err := NewContinuousHMM(3,
		mat.NewDense(3, 3, []float64{
			1.0 / 3, 1.0 / 3, 1.0 / 3,
			1.0 / 3, 1.0 / 3, 1.0 / 3,
			1.0 / 3, 1.0 / 3, 1.0 / 3,
		}),
		[]float64{1.0 / 3, 1.0 / 3, 1.0 / 3},
		[]GaussianEmission{same, same, same},
	)
	require.NoError(t, err)

	path, err := Viterbi(m, []float64{0.5, -0.2, 1.1, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0}, path)
}

func TestViterbiHandlesUnderflowAndZeroProbabilities(t *testing.T) {
	// 遷移確率0の経路は選ばれず、密度がアンダーフローする外れ値でも経路が得られる
	m, err := NewContinuousHMM(2,
		mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
		[]float64{0, 1},
		[]GaussianEmission{NewGaussianEmission(-5, 1), NewGaussianEmission(5, 1)},
	)
	require.NoError(t, err)

	path, score, err := ViterbiWithScore(m, []float64{-5, -5, 1e4})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, path)
	assert.False(t, math.IsInf(score, 0))
}

func TestViterbiSingleObservationAndErrors(t *testing.T) {
	m := separatedModel(t)

	path, err := Viterbi(m, []float64{4.2})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, path)

	_, err = Viterbi(m, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

package hmm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// separatedModel は平均 -5 / +5、分散1、滞在確率0.9の2状態モデルです。
func separatedModel(t *testing.T) *ContinuousHMM {
	t.Helper()
	m, err := NewContinuousHMM(2,
		mat.NewDense(2, 2, []float64{0.9, 0.1, 0.1, 0.9}),
		[]float64{0.5, 0.5},
		[]GaussianEmission{NewGaussianEmission(-5, 1), NewGaussianEmission(5, 1)},
	)
	require.NoError(t, err)
	return m
}

func threeStateModel(t *testing.T) *ContinuousHMM {
	t.Helper()
	m, err := NewContinuousHMMFromParams(Params{
		NStates: 3,
		Transition: [][]float64{
			{0.8, 0.15, 0.05},
			{0.1, 0.8, 0.1},
			{0.05, 0.15, 0.8},
		},
		Initial:   []float64{0.2, 0.5, 0.3},
		Means:     []float64{-2, 0.1, 1.5},
		Variances: []float64{2.0, 0.5, 1.0},
	})
	require.NoError(t, err)
	return m
}

func rowSums(m mat.Matrix) []float64 {
	r, c := m.Dims()
	sums := make([]float64, r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sums[i] += m.At(i, j)
		}
	}
	return sums
}

// collapseModel は分散が MinVariance の2状態モデルです。0 から離れた観測では全状態の密度が0に潰れます。
func collapseModel(t *testing.T) *ContinuousHMM {
	t.Helper()
	m, err := NewContinuousHMM(2,
		mat.NewDense(2, 2, []float64{0.5, 0.5, 0.5, 0.5}),
		[]float64{0.5, 0.5},
		[]GaussianEmission{NewGaussianEmission(0, MinVariance), NewGaussianEmission(0, MinVariance)},
	)
	require.NoError(t, err)
	return m
}

package hmm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func posteriorsFor(t *testing.T, m *ContinuousHMM, obs []float64) *PosteriorResult {
	t.Helper()
	fwd, err := Forward(m, obs)
	require.NoError(t, err)
	bwd, err := Backward(m, obs)
	require.NoError(t, err)
	return Posteriors(m, obs, fwd.Alpha, bwd.Beta)
}

func TestPosteriorsGammaRowsThreeObservations(t *testing.T) {
	m := separatedModel(t)
	obs := []float64{-5.2, 4.8, 5.1}

	post := posteriorsFor(t, m, obs)

	for tIdx, s := range rowSums(post.Gamma) {
		assert.InDelta(t, 1.0, s, 1e-9, "gamma row %d", tIdx)
	}
	assert.Greater(t, post.Gamma.At(0, 0), 0.99)
	assert.Greater(t, post.Gamma.At(1, 1), 0.99)
	assert.Greater(t, post.Gamma.At(2, 1), 0.99)
	assert.Equal(t, 0, post.ZeroGammaRows)
	assert.Equal(t, 0, post.ZeroXiSteps)
}

func TestPosteriorsXiSumConsistency(t *testing.T) {
	m := threeStateModel(t)
	obs, _ := GenerateSequence(m, 40, 3)
	T := len(obs)

	post := posteriorsFor(t, m, obs)

	// 各 ξ_t は正規化されているので総和は T−1
	assert.InDelta(t, float64(T-1), mat.Sum(post.XiSum), 1e-9)

	// Σ_j ξ[i,j] = Σ_{t<T−1} γ[t,i]
	xiRows := rowSums(post.XiSum)
	for i := 0; i < m.NStates(); i++ {
		want := 0.0
		for tIdx := 0; tIdx < T-1; tIdx++ {
			want += post.Gamma.At(tIdx, i)
		}
		assert.InDelta(t, want, xiRows[i], 1e-9, "state %d", i)
	}
}

func TestPosteriorsSingleObservation(t *testing.T) {
	m := separatedModel(t)
	post := posteriorsFor(t, m, []float64{0.1})

	r, c := post.Gamma.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 2, c)
	assert.InDelta(t, 1.0, post.Gamma.At(0, 0)+post.Gamma.At(0, 1), 1e-12)
	assert.Equal(t, 0.0, mat.Sum(post.XiSum))
}

func TestPosteriorsFullyDegenerate(t *testing.T) {
	m := collapseModel(t)
	obs := []float64{0, 1000, 0}

	post := posteriorsFor(t, m, obs)

	// α は t=1 以降、β は t=0 で全0になるため、どの時刻でも α·β が0
	assert.Equal(t, 3, post.ZeroGammaRows)
	assert.Equal(t, 2, post.ZeroXiSteps)
	for tIdx, s := range rowSums(post.Gamma) {
		assert.Equal(t, 0.0, s, "gamma row %d", tIdx)
	}
	for _, v := range post.XiSum.RawMatrix().Data {
		assert.Equal(t, 0.0, v)
	}
}

package hmm

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestGenerateSequence(t *testing.T) {
	m := threeStateModel(t)

	tests := []struct {
		name   string
		length int
	}{
		{"empty", 0},
		{"single", 1},
		{"long", 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, states := GenerateSequence(m, tt.length, 17)
			assert.Len(t, obs, tt.length)
			assert.Len(t, states, tt.length)
			for _, s := range states {
				assert.GreaterOrEqual(t, s, 0)
				assert.Less(t, s, m.NStates())
			}
		})
	}
}

func TestGenerateSequenceReproducible(t *testing.T) {
	m := threeStateModel(t)

	obsA, statesA := GenerateSequence(m, 100, 2024)
	obsB, statesB := GenerateSequence(m, 100, 2024)
	assert.Equal(t, obsA, obsB)
	assert.Equal(t, statesA, statesB)

	obsC, _ := GenerateSequence(m, 100, 2025)
	assert.NotEqual(t, obsA, obsC)

	rng := rand.New(rand.NewPCG(2024, 2024))
	obsD, statesD := SampleWith(m, 100, rng)
	assert.Equal(t, obsA, obsD, "GenerateSequence uses a PCG source seeded with the seed")
	assert.Equal(t, statesA, statesD)
}

func TestSampleFollowsTransitions(t *testing.T) {
	// 決定的に交互に遷移するモデル
	m, err := NewContinuousHMM(2,
		mat.NewDense(2, 2, []float64{0, 1, 1, 0}),
		[]float64{1, 0},
		[]GaussianEmission{NewGaussianEmission(-10, 0.01), NewGaussianEmission(10, 0.01)},
	)
	require.NoError(t, err)

	obs, states := GenerateSequence(m, 20, 1)
	for i, s := range states {
		assert.Equal(t, i%2, s)
		if s == 0 {
			assert.Less(t, obs[i], 0.0)
		} else {
			assert.Greater(t, obs[i], 0.0)
		}
	}
}

func TestDrawIndex(t *testing.T) {
	tests := []struct {
		name  string
		probs []float64
		u     float64
		want  int
	}{
		{"first bucket", []float64{0.2, 0.3, 0.5}, 0.1, 0},
		{"boundary belongs to lower bucket", []float64{0.5, 0.5}, 0.5, 0},
		{"last bucket", []float64{0.2, 0.3, 0.5}, 0.99, 2},
		{"zero draw skips empty bucket", []float64{0, 1}, 0, 1},
		{"rounding overflow picks last positive", []float64{0.5, 0.5, 0}, 1.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, drawIndex(tt.probs, tt.u))
		})
	}
}

func TestPredictMovements(t *testing.T) {
	m := separatedModel(t)

	forecast := PredictMovements(m, 10)
	want, _ := GenerateSequence(m, 10, 123)
	assert.Equal(t, want, forecast)
}

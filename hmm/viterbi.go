package hmm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Viterbi は観測系列に対する最尤の隠れ状態系列を返します。
// 対数領域で計算し、同点の場合は番号の小さい状態を選びます。
func Viterbi(m *ContinuousHMM, obs []float64) ([]int, error) {
	path, _, err := ViterbiWithScore(m, obs)
	return path, err
}

// ViterbiWithScore は Viterbi に加えて最尤パスの対数確率 max ln P(O, Q | λ) を返します。
func ViterbiWithScore(m *ContinuousHMM, obs []float64) ([]int, float64, error) {
	if err := checkObservations("Viterbi", m, obs); err != nil {
		return nil, 0, err
	}

	T, n := len(obs), m.nStates
	logA := mat.NewDense(n, n, nil)
	logA.Apply(func(_, _ int, v float64) float64 { return math.Log(v) }, m.trans)

	delta := mat.NewDense(T, n, nil)
	psi := make([][]int, T)

	row := delta.RawRowView(0)
	for i := 0; i < n; i++ {
		row[i] = math.Log(m.init[i]) + m.emissions[i].LogDensity(obs[0])
	}

	for t := 1; t < T; t++ {
		prev := delta.RawRowView(t - 1)
		cur := delta.RawRowView(t)
		psi[t] = make([]int, n)
		for j := 0; j < n; j++ {
			best, arg := math.Inf(-1), 0
			for i := 0; i < n; i++ {
				if v := prev[i] + logA.At(i, j); v > best {
					best, arg = v, i
				}
			}
			cur[j] = best + m.emissions[j].LogDensity(obs[t])
			psi[t][j] = arg
		}
	}

	path := make([]int, T)
	best := math.Inf(-1)
	for i, v := range delta.RawRowView(T - 1) {
		if v > best {
			best = v
			path[T-1] = i
		}
	}
	for t := T - 2; t >= 0; t-- {
		path[t] = psi[t+1][path[t+1]]
	}
	return path, best, nil
}

package hmm

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// minReestimationWeight 以下の期待回数しか持たない行・状態は再推定せず前の値を保持します。
const minReestimationWeight = 1e-10

// MStepStats は再推定を見送った箇所の数です。
type MStepStats struct {
	// SkippedInitial は γ[0] の和が0で初期分布を据え置いたことを示します。
	SkippedInitial        bool
	SkippedTransitionRows int
	SkippedEmissions      int
}

// Reestimate は事後確率から新しいスナップショットを作ります（EMのMステップ）。
//
//   - π ← γ[0]（γ[0] が全0なら前の π のまま）
//   - A[i,·] ← XiSum[i,·] / Σ_{t<T−1} γ[t,i]
//   - μ_i, σ²_i ← γ[·,i] で重み付けした平均と母分散（σ² は MinVariance で下限クリップ）
//
// T < 2 のときは遷移の情報がないため m をそのまま返します。
func Reestimate(m *ContinuousHMM, obs []float64, post *PosteriorResult) (*ContinuousHMM, MStepStats) {
	var stats MStepStats
	T := len(obs)
	if T < 2 {
		return m, stats
	}

	next := m.clone()
	n := m.nStates
	gamma := post.Gamma

	if g0 := gamma.RawRowView(0); floats.Sum(g0) > minReestimationWeight {
		copy(next.init, g0)
	} else {
		stats.SkippedInitial = true
	}

	col := make([]float64, T)
	for i := 0; i < n; i++ {
		mat.Col(col, i, gamma)

		if denom := floats.Sum(col[:T-1]); denom > minReestimationWeight {
			row := next.trans.RawRowView(i)
			floats.ScaleTo(row, 1/denom, post.XiSum.RawRowView(i))
		} else {
			stats.SkippedTransitionRows++
		}

		if w := floats.Sum(col); w > minReestimationWeight {
			mean, variance := stat.PopMeanVariance(obs, col)
			next.emissions[i] = NewGaussianEmission(mean, variance)
		} else {
			stats.SkippedEmissions++
		}
	}
	return next, stats
}

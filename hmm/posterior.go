package hmm

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PosteriorResult は状態事後確率 γ と期待遷移回数 Σ_t ξ_t です。
type PosteriorResult struct {
	// Gamma は T×n、各行は P(q_t = i | O, λ) を正規化したもの（和が0なら全0）です。
	Gamma *mat.Dense
	// XiSum は n×n、各 ξ_t を時刻ごとに正規化して足し合わせたものです。行正規化はしません。
	XiSum *mat.Dense
	// ZeroGammaRows は和が0だった γ の行数です。
	ZeroGammaRows int
	// ZeroXiSteps は正規化定数が0だった時刻の数です。
	ZeroXiSteps int
}

// Posteriors は前向き・後ろ向き確率から γ と ξ の和を計算します。
// alpha と beta は obs と同じ長さの Forward / Backward の結果である必要があります。
func Posteriors(m *ContinuousHMM, obs []float64, alpha, beta *mat.Dense) *PosteriorResult {
	return posteriors(m, alpha, beta, emissionTable(m.emissions, obs))
}

func posteriors(m *ContinuousHMM, alpha, beta, b *mat.Dense) *PosteriorResult {
	T, n := alpha.Dims()
	res := &PosteriorResult{
		Gamma: mat.NewDense(T, n, nil),
		XiSum: mat.NewDense(n, n, nil),
	}

	res.Gamma.MulElem(alpha, beta)
	for t := 0; t < T; t++ {
		row := res.Gamma.RawRowView(t)
		if s := floats.Sum(row); s > 0 {
			floats.Scale(1/s, row)
		} else {
			res.ZeroGammaRows++
		}
	}

	xi := mat.NewDense(n, n, nil)
	w := make([]float64, n)
	for t := 0; t < T-1; t++ {
		// ξ_t[i,j] ∝ α[t,i]·A[i,j]·b_j(o[t+1])·β[t+1,j]
		floats.MulTo(w, b.RawRowView(t+1), beta.RawRowView(t+1))
		a := alpha.RawRowView(t)
		for i := 0; i < n; i++ {
			dst := xi.RawRowView(i)
			floats.ScaleTo(dst, a[i], m.trans.RawRowView(i))
			floats.Mul(dst, w)
		}

		s := mat.Sum(xi)
		if s <= 0 {
			res.ZeroXiSteps++
			continue
		}
		xi.Scale(1/s, xi)
		res.XiSum.Add(res.XiSum, xi)
	}
	return res
}

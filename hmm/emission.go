package hmm

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/hmmgo/core/parallel"
)

// MinVariance は分散の下限です。退化した状態が密度を発散させるのを防ぎます。
const MinVariance = 1e-6

// emissionTableThreshold を超える長さの系列では放出確率表を並列に計算します。
const emissionTableThreshold = 2048

// GaussianEmission は一つの隠れ状態に対応する一変量正規分布の放出分布です。
type GaussianEmission struct {
	Mean     float64
	Variance float64
}

// NewGaussianEmission は分散を MinVariance で下限クリップしたGaussianEmissionを返します。
func NewGaussianEmission(mean, variance float64) GaussianEmission {
	return GaussianEmission{Mean: mean, Variance: math.Max(variance, MinVariance)}
}

func (g GaussianEmission) normal(src rand.Source) distuv.Normal {
	return distuv.Normal{Mu: g.Mean, Sigma: math.Sqrt(g.Variance), Src: src}
}

// Density は観測値xにおける確率密度を返します。
func (g GaussianEmission) Density(x float64) float64 {
	return g.normal(nil).Prob(x)
}

// LogDensity は観測値xにおける対数確率密度を返します。
// Densityが0にアンダーフローする領域でも有限値を返します。
func (g GaussianEmission) LogDensity(x float64) float64 {
	return g.normal(nil).LogProb(x)
}

// Sample は src から一つの観測値を引きます。
func (g GaussianEmission) Sample(src rand.Source) float64 {
	return g.normal(src).Rand()
}

// StdDev returns sqrt(Variance).
func (g GaussianEmission) StdDev() float64 {
	return math.Sqrt(g.Variance)
}

func (g GaussianEmission) String() string {
	return fmt.Sprintf("N(μ=%.4f, σ²=%.4f)", g.Mean, g.Variance)
}

// emissionTable は b[t,i] = Density_i(obs[t]) の T×n 表を作ります。
// 各セルは一度だけ書き込まれるため、並列計算でも結果は逐次計算と一致します。
func emissionTable(emissions []GaussianEmission, obs []float64) *mat.Dense {
	n := len(emissions)
	table := mat.NewDense(len(obs), n, nil)
	dists := make([]distuv.Normal, n)
	for i, e := range emissions {
		dists[i] = e.normal(nil)
	}

	parallel.For(len(obs), emissionTableThreshold, func(start, end int) {
		for t := start; t < end; t++ {
			row := table.RawRowView(t)
			for i := range dists {
				row[i] = dists[i].Prob(obs[t])
			}
		}
	})
	return table
}

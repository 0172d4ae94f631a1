package hmm

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
)

// ForwardResult は前向きアルゴリズムの結果です。
type ForwardResult struct {
	// Alpha は T×n のスケーリング済み前向き確率です。各行の和は1（またはすべて0）になります。
	Alpha *mat.Dense
	// Scales は各時刻のスケーリング係数 c[t] です。
	Scales []float64
	// LogLikelihood は c[t] > 0 の時刻についての Σ ln c[t] です。
	LogLikelihood float64
	// ZeroScaleSteps は c[t] = 0 となりスケーリングを諦めた時刻の数です。
	ZeroScaleSteps int
}

// BackwardResult は後ろ向きアルゴリズムの結果です。
type BackwardResult struct {
	// Beta は T×n の後ろ向き確率です。β[T−1] は1、それ以外の行は自身の和で正規化されます。
	Beta *mat.Dense
	// ZeroScaleSteps は和が0の行の数です。
	ZeroScaleSteps int
}

func checkObservations(op string, m *ContinuousHMM, obs []float64) error {
	if m == nil {
		return errors.NewValueError(op, "model is nil")
	}
	if len(obs) == 0 {
		return errors.NewEmptyDataError(op)
	}
	return nil
}

// Forward はスケーリング付き前向きアルゴリズムを実行します。
func Forward(m *ContinuousHMM, obs []float64) (*ForwardResult, error) {
	if err := checkObservations("Forward", m, obs); err != nil {
		return nil, err
	}
	return forward(m, obs, emissionTable(m.emissions, obs)), nil
}

func forward(m *ContinuousHMM, obs []float64, b *mat.Dense) *ForwardResult {
	T, n := len(obs), m.nStates
	res := &ForwardResult{
		Alpha:  mat.NewDense(T, n, nil),
		Scales: make([]float64, T),
	}

	row := res.Alpha.RawRowView(0)
	floats.MulTo(row, m.init, b.RawRowView(0))
	res.scale(0, row)

	for t := 1; t < T; t++ {
		prev := mat.NewVecDense(n, res.Alpha.RawRowView(t-1))
		cur := mat.NewVecDense(n, res.Alpha.RawRowView(t))
		// α[t,j] = Σ_i α[t−1,i]·A[i,j]
		cur.MulVec(m.trans.T(), prev)
		row = res.Alpha.RawRowView(t)
		floats.Mul(row, b.RawRowView(t))
		res.scale(t, row)
	}
	return res
}

func (r *ForwardResult) scale(t int, row []float64) {
	c := floats.Sum(row)
	r.Scales[t] = c
	if c > 0 {
		floats.Scale(1/c, row)
		r.LogLikelihood += math.Log(c)
		return
	}
	for i := range row {
		row[i] = 0
	}
	r.ZeroScaleSteps++
}

// Backward はスケーリング付き後ろ向きアルゴリズムを実行します。
// 各行は前向きのスケーリング係数とは独立に、自身の和で正規化されます。
func Backward(m *ContinuousHMM, obs []float64) (*BackwardResult, error) {
	if err := checkObservations("Backward", m, obs); err != nil {
		return nil, err
	}
	return backward(m, obs, emissionTable(m.emissions, obs)), nil
}

func backward(m *ContinuousHMM, obs []float64, b *mat.Dense) *BackwardResult {
	T, n := len(obs), m.nStates
	res := &BackwardResult{Beta: mat.NewDense(T, n, nil)}

	last := res.Beta.RawRowView(T - 1)
	for i := range last {
		last[i] = 1
	}

	tmp := make([]float64, n)
	for t := T - 2; t >= 0; t-- {
		// tmp[j] = b_j(o[t+1])·β[t+1,j]
		floats.MulTo(tmp, b.RawRowView(t+1), res.Beta.RawRowView(t+1))
		cur := mat.NewVecDense(n, res.Beta.RawRowView(t))
		cur.MulVec(m.trans, mat.NewVecDense(n, tmp))

		row := res.Beta.RawRowView(t)
		if s := floats.Sum(row); s > 0 {
			floats.Scale(1/s, row)
		} else {
			res.ZeroScaleSteps++
		}
	}
	return res
}

// LogLikelihood は観測系列の対数尤度 ln P(O | λ) を返します。
func LogLikelihood(m *ContinuousHMM, obs []float64) (float64, error) {
	res, err := Forward(m, obs)
	if err != nil {
		return 0, err
	}
	return res.LogLikelihood, nil
}

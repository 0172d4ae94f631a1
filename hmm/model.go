// Package hmm は一変量ガウス放出を持つ連続隠れマルコフモデルを実装します。
//
// 主な機能:
//   - スケーリング付き前向き・後ろ向きアルゴリズム
//   - Baum-Welch (EM) によるパラメータ推定
//   - Viterbi による最尤状態系列の復号
//   - 学習済みモデルからの系列生成
//
// ContinuousHMM は不変のスナップショットです。学習の各反復は新しいスナップショットを返し、
// 入力のモデルや観測系列を書き換えることはありません。
package hmm

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
)

// ContinuousHMM holds the parameters of an n-state Gaussian HMM.
type ContinuousHMM struct {
	nStates   int
	trans     *mat.Dense
	init      []float64
	emissions []GaussianEmission
}

// Params は ContinuousHMM のパラメータを素朴な値で表したものです。
// シリアライズやリテラル値からのモデル構築に使います。
type Params struct {
	NStates    int         `json:"n_states"`
	Transition [][]float64 `json:"transition"`
	Initial    []float64   `json:"initial"`
	Means      []float64   `json:"means"`
	Variances  []float64   `json:"variances"`
}

// NewContinuousHMM はパラメータをコピーしてモデルを構築します。
// 形状が nStates と合わない場合は DimensionError を返します。
func NewContinuousHMM(nStates int, trans *mat.Dense, init []float64, emissions []GaussianEmission) (*ContinuousHMM, error) {
	const op = "NewContinuousHMM"
	if nStates < 1 {
		return nil, errors.NewValidationError("n_states", "must be at least 1", nStates)
	}
	if trans == nil {
		return nil, errors.NewDimensionError(op, nStates, 0, 0)
	}
	r, c := trans.Dims()
	if r != nStates {
		return nil, errors.NewDimensionError(op, nStates, r, 0)
	}
	if c != nStates {
		return nil, errors.NewDimensionError(op, nStates, c, 1)
	}
	if len(init) != nStates {
		return nil, errors.NewDimensionError(op, nStates, len(init), 0)
	}
	if len(emissions) != nStates {
		return nil, errors.NewDimensionError(op, nStates, len(emissions), 0)
	}
	if err := errors.CheckMatrix("transition", trans, r, c, 0); err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability("initial", init, 0); err != nil {
		return nil, err
	}

	m := &ContinuousHMM{
		nStates:   nStates,
		trans:     mat.DenseCopyOf(trans),
		init:      append([]float64(nil), init...),
		emissions: make([]GaussianEmission, nStates),
	}
	for i, e := range emissions {
		m.emissions[i] = NewGaussianEmission(e.Mean, e.Variance)
	}
	return m, nil
}

// MustNewContinuousHMM は NewContinuousHMM と同じですが、エラー時にpanicします。
func MustNewContinuousHMM(nStates int, trans *mat.Dense, init []float64, emissions []GaussianEmission) *ContinuousHMM {
	m, err := NewContinuousHMM(nStates, trans, init, emissions)
	if err != nil {
		panic(err)
	}
	return m
}

// NewContinuousHMMFromParams builds a model from plain values.
func NewContinuousHMMFromParams(p Params) (*ContinuousHMM, error) {
	const op = "NewContinuousHMMFromParams"
	n := p.NStates
	if n < 1 {
		return nil, errors.NewValidationError("n_states", "must be at least 1", n)
	}
	if len(p.Transition) != n {
		return nil, errors.NewDimensionError(op, n, len(p.Transition), 0)
	}
	data := make([]float64, 0, n*n)
	for _, row := range p.Transition {
		if len(row) != n {
			return nil, errors.NewDimensionError(op, n, len(row), 1)
		}
		data = append(data, row...)
	}
	if len(p.Means) != n {
		return nil, errors.NewDimensionError(op, n, len(p.Means), 0)
	}
	if len(p.Variances) != n {
		return nil, errors.NewDimensionError(op, n, len(p.Variances), 0)
	}
	emissions := make([]GaussianEmission, n)
	for i := range emissions {
		emissions[i] = GaussianEmission{Mean: p.Means[i], Variance: p.Variances[i]}
	}
	return NewContinuousHMM(n, mat.NewDense(n, n, data), p.Initial, emissions)
}

// RandomInit はシードから決定的にランダムなモデルを作ります。
// 遷移行列の各行と初期分布は一様乱数を正規化したもの、平均は0の周りに2間隔で並び、
// 分散は 1 + U[0,1) です。nStates が1未満ならpanicします。
func RandomInit(nStates int, seed uint64) *ContinuousHMM {
	if nStates < 1 {
		panic(errors.NewValidationError("n_states", "must be at least 1", nStates))
	}
	rng := newRNG(seed)

	trans := mat.NewDense(nStates, nStates, nil)
	for i := 0; i < nStates; i++ {
		row := trans.RawRowView(i)
		for j := range row {
			row[j] = rng.Float64()
		}
		floats.Scale(1/floats.Sum(row), row)
	}

	init := make([]float64, nStates)
	for i := range init {
		init[i] = rng.Float64()
	}
	floats.Scale(1/floats.Sum(init), init)

	emissions := make([]GaussianEmission, nStates)
	for i := range emissions {
		mean := (float64(i) - float64(nStates-1)/2) * 2
		emissions[i] = NewGaussianEmission(mean, 1+rng.Float64())
	}

	return &ContinuousHMM{nStates: nStates, trans: trans, init: init, emissions: emissions}
}

// NStates returns the number of hidden states.
func (m *ContinuousHMM) NStates() int { return m.nStates }

// Transition returns a copy of the transition matrix.
func (m *ContinuousHMM) Transition() *mat.Dense { return mat.DenseCopyOf(m.trans) }

// TransitionAt returns A[i,j].
func (m *ContinuousHMM) TransitionAt(i, j int) float64 { return m.trans.At(i, j) }

// Initial returns a copy of the initial state distribution.
func (m *ContinuousHMM) Initial() []float64 { return append([]float64(nil), m.init...) }

// Emissions returns a copy of the per-state emission distributions.
func (m *ContinuousHMM) Emissions() []GaussianEmission {
	return append([]GaussianEmission(nil), m.emissions...)
}

// Emission returns the emission distribution of state i.
func (m *ContinuousHMM) Emission(i int) GaussianEmission { return m.emissions[i] }

// Params はモデルのパラメータを素朴な値でコピーして返します。
func (m *ContinuousHMM) Params() Params {
	p := Params{
		NStates:    m.nStates,
		Transition: make([][]float64, m.nStates),
		Initial:    m.Initial(),
		Means:      make([]float64, m.nStates),
		Variances:  make([]float64, m.nStates),
	}
	for i := 0; i < m.nStates; i++ {
		p.Transition[i] = append([]float64(nil), m.trans.RawRowView(i)...)
		p.Means[i] = m.emissions[i].Mean
		p.Variances[i] = m.emissions[i].Variance
	}
	return p
}

// Validate は確率パラメータの整合性を許容誤差tolで検査します。
func (m *ContinuousHMM) Validate(tol float64) error {
	for i := 0; i < m.nStates; i++ {
		row := m.trans.RawRowView(i)
		for _, v := range row {
			if v < 0 || math.IsNaN(v) {
				return errors.NewValidationError(fmt.Sprintf("transition[%d]", i), "entries must be non-negative", row)
			}
		}
		if s := floats.Sum(row); math.Abs(s-1) > tol {
			return errors.NewValidationError(fmt.Sprintf("transition[%d]", i), "row must sum to 1", s)
		}
	}
	for _, v := range m.init {
		if v < 0 || math.IsNaN(v) {
			return errors.NewValidationError("initial", "entries must be non-negative", m.init)
		}
	}
	if s := floats.Sum(m.init); math.Abs(s-1) > tol {
		return errors.NewValidationError("initial", "must sum to 1", s)
	}
	for i, e := range m.emissions {
		if e.Variance < MinVariance || math.IsNaN(e.Mean) {
			return errors.NewValidationError(fmt.Sprintf("emission[%d]", i), "invalid Gaussian parameters", e)
		}
	}
	return nil
}

// String はモデルのパラメータを人が読める形で返します。
func (m *ContinuousHMM) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "HMM Model Parameters:\nNumber of states: %d\n", m.nStates)

	b.WriteString("\nInitial probabilities:\n")
	for i, p := range m.init {
		fmt.Fprintf(&b, "  π[%d] = %.4f\n", i, p)
	}

	b.WriteString("\nTransition matrix:\n")
	for i := 0; i < m.nStates; i++ {
		b.WriteString("  ")
		for j := 0; j < m.nStates; j++ {
			fmt.Fprintf(&b, "%8.4f", m.trans.At(i, j))
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nEmission parameters:\n")
	for i, e := range m.emissions {
		fmt.Fprintf(&b, "  State %d: μ = %.4f, σ² = %.4f\n", i, e.Mean, e.Variance)
	}
	return b.String()
}

// clone returns a deep copy of m.
func (m *ContinuousHMM) clone() *ContinuousHMM {
	return &ContinuousHMM{
		nStates:   m.nStates,
		trans:     mat.DenseCopyOf(m.trans),
		init:      m.Initial(),
		emissions: m.Emissions(),
	}
}

// Package metrics は復号された隠れ状態系列の評価指標を提供します。
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
)

// maxPermutationStates を超える状態数では全順列の探索を行いません（n! 通り）。
const maxPermutationStates = 8

func checkStates(op string, trueStates, predStates []int, n int) error {
	if len(trueStates) == 0 {
		return errors.NewEmptyDataError(op)
	}
	if len(predStates) != len(trueStates) {
		return errors.NewDimensionError(op, len(trueStates), len(predStates), 0)
	}
	if n < 1 {
		return errors.NewValidationError("n", "must be at least 1", n)
	}
	for i := range trueStates {
		if trueStates[i] < 0 || trueStates[i] >= n || predStates[i] < 0 || predStates[i] >= n {
			return errors.NewValueError(op, fmt.Sprintf("state out of range [0, %d) at position %d", n, i))
		}
	}
	return nil
}

// ConfusionMatrix は C[i,j] = 真の状態 i が状態 j と予測された回数 の n×n 行列を返す
func ConfusionMatrix(trueStates, predStates []int, n int) (*mat.Dense, error) {
	if err := checkStates("ConfusionMatrix", trueStates, predStates, n); err != nil {
		return nil, err
	}
	cm := mat.NewDense(n, n, nil)
	for i := range trueStates {
		cm.Set(trueStates[i], predStates[i], cm.At(trueStates[i], predStates[i])+1)
	}
	return cm, nil
}

// PermutationAccuracy は予測ラベルの付け替えを全順列で試したときの最大正解率を返す
// HMMの状態番号は学習ごとに入れ替わり得るため、ラベルの対応は問いません。
func PermutationAccuracy(trueStates, predStates []int, n int) (float64, error) {
	cm, err := ConfusionMatrix(trueStates, predStates, n)
	if err != nil {
		return 0, err
	}
	if n > maxPermutationStates {
		return 0, errors.NewValidationError("n", fmt.Sprintf("at most %d states supported", maxPermutationStates), n)
	}

	best := 0.0
	for _, perm := range combin.Permutations(n, n) {
		// perm[j] は予測状態 j に対応させる真の状態
		hits := 0.0
		for j, i := range perm {
			hits += cm.At(i, j)
		}
		if hits > best {
			best = hits
		}
	}
	return errors.SafeDivide(best, float64(len(trueStates))), nil
}

// RegimeStats は一つの状態に割り当てられた観測値の要約です。
type RegimeStats struct {
	State     int
	Count     int
	Frequency float64
	Mean      float64
	StdDev    float64
}

// RegimeSummary は復号された経路ごとに観測値の件数・平均・標準偏差（不偏）を集計する
// 観測が2件未満の状態の標準偏差は0、観測がない状態の平均は0です。
func RegimeSummary(obs []float64, path []int, n int) ([]RegimeStats, error) {
	const op = "RegimeSummary"
	if n < 1 {
		return nil, errors.NewValidationError("n_states", "must be at least 1", n)
	}
	if len(obs) == 0 {
		return nil, errors.NewEmptyDataError(op)
	}
	if len(path) != len(obs) {
		return nil, errors.NewDimensionError(op, len(obs), len(path), 0)
	}

	groups := make([][]float64, n)
	for t, s := range path {
		if s < 0 || s >= n {
			return nil, errors.NewValueError(op, fmt.Sprintf("state %d out of range [0, %d)", s, n))
		}
		groups[s] = append(groups[s], obs[t])
	}

	summary := make([]RegimeStats, n)
	for s, g := range groups {
		rs := RegimeStats{
			State:     s,
			Count:     len(g),
			Frequency: float64(len(g)) / float64(len(obs)),
		}
		switch {
		case len(g) >= 2:
			rs.Mean, rs.StdDev = stat.MeanStdDev(g, nil)
		case len(g) == 1:
			rs.Mean = g[0]
		}
		summary[s] = rs
	}
	return summary, nil
}

package hmm

import (
	"fmt"
	"sort"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
)

// RegimeNames は状態数に応じた相場局面の名前を、平均の小さい順に返します。
func RegimeNames(n int) []string {
	switch n {
	case 2:
		return []string{"Bear Market", "Bull Market"}
	case 3:
		return []string{"Bearish", "Neutral", "Bullish"}
	default:
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("Regime %d", i)
		}
		return names
	}
}

// OrderByMean は放出平均の昇順に並べた状態番号を返します。同じ平均なら番号順です。
func OrderByMean(m *ContinuousHMM) []int {
	order := make([]int, m.nStates)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return m.emissions[order[a]].Mean < m.emissions[order[b]].Mean
	})
	return order
}

// StateNames は各状態に局面名を割り当てます。平均の最も小さい状態が RegimeNames(n)[0] になります。
func StateNames(m *ContinuousHMM) []string {
	names := RegimeNames(m.nStates)
	byState := make([]string, m.nStates)
	for rank, state := range OrderByMean(m) {
		byState[state] = names[rank]
	}
	return byState
}

// LabelPath maps a decoded state path to regime names.
func LabelPath(m *ContinuousHMM, path []int) ([]string, error) {
	names := StateNames(m)
	labels := make([]string, len(path))
	for t, s := range path {
		if s < 0 || s >= m.nStates {
			return nil, errors.NewValueError("LabelPath", fmt.Sprintf("state %d at position %d out of range [0, %d)", s, t, m.nStates))
		}
		labels[t] = names[s]
	}
	return labels, nil
}

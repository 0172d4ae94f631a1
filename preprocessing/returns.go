// Package preprocessing は価格系列をHMMの観測系列に変換する前処理を提供します。
package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
)

// PctChange は終値系列から前日比の変化率（%）を計算する
//
//	r[t-1] = 100 · (c[t] − c[t−1]) / c[t−1]
//
// 戻り値の長さは len(closes)−1 です。終値が2つ未満、前日終値が0、
// または値がNaN/Infの場合はエラーを返します。
//
// 使用例:
//
//	changes, err := preprocessing.PctChange([]float64{100, 102, 99.96})
//	// changes == [2, -2]
func PctChange(closes []float64) ([]float64, error) {
	if len(closes) < 2 {
		return nil, errors.NewValueError("PctChange", fmt.Sprintf("need at least 2 closes, got %d", len(closes)))
	}
	if err := errors.CheckNumericalStability("PctChange", closes, 0); err != nil {
		return nil, err
	}

	changes := make([]float64, len(closes)-1)
	for t := 1; t < len(closes); t++ {
		prev := closes[t-1]
		if prev == 0 {
			return nil, errors.NewValueError("PctChange", fmt.Sprintf("zero close at index %d", t-1))
		}
		changes[t-1] = 100 * (closes[t] - prev) / prev
	}
	return changes, nil
}

// LogReturns は終値系列から対数収益率 ln(c[t]/c[t−1]) を計算する
// 終値はすべて正である必要があります。
func LogReturns(closes []float64) ([]float64, error) {
	if len(closes) < 2 {
		return nil, errors.NewValueError("LogReturns", fmt.Sprintf("need at least 2 closes, got %d", len(closes)))
	}
	returns := make([]float64, len(closes)-1)
	for t := 1; t < len(closes); t++ {
		if closes[t-1] <= 0 || closes[t] <= 0 {
			return nil, errors.NewValueError("LogReturns", fmt.Sprintf("non-positive close near index %d", t))
		}
		returns[t-1] = math.Log(closes[t] / closes[t-1])
	}
	return returns, nil
}

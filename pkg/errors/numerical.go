package errors

import (
	"math"
)

// maxReportedValues はNumericalInstabilityErrorに載せる非有限値の上限です。
const maxReportedValues = 10

func nonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// CheckNumericalStability は values にNaNまたは±Infが含まれていればエラーを返します。
// 観測系列や初期分布のような一次元の入力に使います。
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if nonFinite(v) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar は一つの値（対数尤度など）を検査します。
func CheckScalar(operation string, value float64, iteration int) error {
	if nonFinite(value) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// CheckMatrix は rows×cols の行列を検査し、非有限値を最大10個まで集めてエラーにします。
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols, iteration int) error {
	var bad []float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := matrix.At(i, j); nonFinite(v) {
				bad = append(bad, v)
				if len(bad) == maxReportedValues {
					return NewNumericalInstabilityError(operation, bad, iteration)
				}
			}
		}
	}
	if len(bad) > 0 {
		return NewNumericalInstabilityError(operation, bad, iteration)
	}
	return nil
}

// SafeDivide は |denominator| < 1e-10 のとき0を返す除算です。
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return numerator / denominator
}

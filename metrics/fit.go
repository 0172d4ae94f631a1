package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
)

// FitReport は観測値と当てはめ値（復号した状態の平均など）の誤差指標です。
type FitReport struct {
	MSE  float64
	RMSE float64
	MAE  float64
	// R2 は決定係数です。観測値の分散が0のときはNaNになります。
	R2 float64
}

// FitErrors は obs と fitted の MSE / RMSE / MAE / R² を計算する
func FitErrors(obs, fitted []float64) (FitReport, error) {
	const op = "FitErrors"
	n := len(obs)
	if n == 0 {
		return FitReport{}, errors.NewEmptyDataError(op)
	}
	if len(fitted) != n {
		return FitReport{}, errors.NewDimensionError(op, n, len(fitted), 0)
	}

	residuals := make([]float64, n)
	floats.SubTo(residuals, obs, fitted)

	// MSE = (1/n) * Σ(obs - fitted)²
	mse := floats.Dot(residuals, residuals) / float64(n)
	mae := floats.Norm(residuals, 1) / float64(n)

	r2 := math.NaN()
	if stat.Variance(obs, nil) > 0 {
		r2 = stat.RSquaredFrom(fitted, obs, nil)
	}
	return FitReport{MSE: mse, RMSE: math.Sqrt(mse), MAE: mae, R2: r2}, nil
}

// RegimeFitted は各時刻の当てはめ値として、復号された状態の平均を並べます。
func RegimeFitted(path []int, means []float64) ([]float64, error) {
	fitted := make([]float64, len(path))
	for t, s := range path {
		if s < 0 || s >= len(means) {
			return nil, errors.NewDimensionError("RegimeFitted", len(means), s+1, 1)
		}
		fitted[t] = means[s]
	}
	return fitted, nil
}

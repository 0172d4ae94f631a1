package hmm

import (
	"math/rand/v2"
)

// forecastSeed は PredictMovements が使う固定シードです。
const forecastSeed = 123

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// GenerateSequence はシードから決定的に長さ length の観測系列と状態系列を生成します。
func GenerateSequence(m *ContinuousHMM, length int, seed uint64) ([]float64, []int) {
	return SampleWith(m, length, newRNG(seed))
}

// SampleWith は rng を使って系列を生成します。rng は呼び出しの間この関数が占有します。
//
// 初期状態を π から逆関数法で引き、各時刻で 状態を記録 → 放出を引く → 遷移先を引く を繰り返します。
func SampleWith(m *ContinuousHMM, length int, rng *rand.Rand) ([]float64, []int) {
	if length <= 0 {
		return []float64{}, []int{}
	}
	obs := make([]float64, length)
	states := make([]int, length)

	state := drawIndex(m.init, rng.Float64())
	for t := 0; t < length; t++ {
		states[t] = state
		obs[t] = m.emissions[state].Sample(rng)
		state = drawIndex(m.trans.RawRowView(state), rng.Float64())
	}
	return obs, states
}

// drawIndex は累積和が初めて u 以上になる、確率が正の添字を返します。
// 丸め誤差で u が累積和の最後を超えた場合は、確率が正の最後の添字を返します。
func drawIndex(probs []float64, u float64) int {
	cum := 0.0
	last := 0
	for i, p := range probs {
		cum += p
		if p > 0 {
			last = i
		}
		if p > 0 && u <= cum {
			return i
		}
	}
	return last
}

// PredictMovements は固定シードで n ステップ先までの観測値をシミュレートします。
func PredictMovements(m *ContinuousHMM, n int) []float64 {
	obs, _ := GenerateSequence(m, n, forecastSeed)
	return obs
}

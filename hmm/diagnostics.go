package hmm

import "fmt"

// Diagnostics は学習中に局所的に回復した数値的な退化の回数を数えます。
// いずれも学習を止める理由にはなりません。
type Diagnostics struct {
	// ZeroForwardScales は前向きのスケーリング係数が0になった時刻の数です。
	ZeroForwardScales int
	// ZeroBackwardScales は後ろ向きの行和が0になった時刻の数です。
	ZeroBackwardScales int
	ZeroGammaRows      int
	ZeroXiSteps        int
	// SkippedInitial は初期分布を再推定しなかった反復の数です。
	SkippedInitial int
	// SkippedTransitionRows は期待回数が小さすぎて再推定しなかった遷移行の数です。
	SkippedTransitionRows int
	SkippedEmissions      int
	// LogLikeDecreased は対数尤度が許容誤差を超えて減少した反復の数です。
	LogLikeDecreased int
}

func (d *Diagnostics) addForward(r *ForwardResult) {
	d.ZeroForwardScales += r.ZeroScaleSteps
}

func (d *Diagnostics) addBackward(r *BackwardResult) {
	d.ZeroBackwardScales += r.ZeroScaleSteps
}

func (d *Diagnostics) addPosterior(r *PosteriorResult) {
	d.ZeroGammaRows += r.ZeroGammaRows
	d.ZeroXiSteps += r.ZeroXiSteps
}

func (d *Diagnostics) addMStep(s MStepStats) {
	if s.SkippedInitial {
		d.SkippedInitial++
	}
	d.SkippedTransitionRows += s.SkippedTransitionRows
	d.SkippedEmissions += s.SkippedEmissions
}

// Clean reports whether no degeneracy was recorded.
func (d Diagnostics) Clean() bool {
	return d == Diagnostics{}
}

func (d Diagnostics) String() string {
	type plain Diagnostics
	return fmt.Sprintf("%+v", plain(d))
}

package hmm

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/YuminosukeSato/hmmgo/core/model"
	"github.com/YuminosukeSato/hmmgo/pkg/errors"
	"github.com/YuminosukeSato/hmmgo/pkg/log"
)

const gaussianHMMName = "GaussianHMM"

var (
	_ model.SequenceModel   = (*GaussianHMM)(nil)
	_ model.ParameterGetter = (*GaussianHMM)(nil)
	_ model.ParameterSetter = (*GaussianHMM)(nil)
	_ model.WeightExporter  = (*GaussianHMM)(nil)
	_ model.Persistable     = (*GaussianHMM)(nil)
)

// GaussianHMM は一変量ガウス放出HMMの推定器です。
// scikit-learn (hmmlearn) の GaussianHMM と同じく Fit / Predict / Score / Sample を提供します。
type GaussianHMM struct {
	state *model.StateManager

	// ハイパーパラメータ
	nStates     int     // 隠れ状態数
	maxIter     int     // EMの最大反復回数
	tol         float64 // 収束判定の許容誤差
	randomState uint64  // RandomInit のシード
	keepHistory bool    // 各反復のスナップショットを保持するか
	logger      log.Logger

	version string

	// 学習結果
	model_       *ContinuousHMM
	trace_       []float64
	converged_   bool
	nIter_       int
	diagnostics_ Diagnostics
	history_     []*ContinuousHMM

	mu sync.RWMutex
}

// GaussianHMMOption は設定オプション
type GaussianHMMOption func(*GaussianHMM)

// NewGaussianHMM は新しいGaussianHMMを作成
func NewGaussianHMM(options ...GaussianHMMOption) *GaussianHMM {
	cfg := DefaultTrainConfig()
	g := &GaussianHMM{
		state:       model.NewStateManager(),
		nStates:     cfg.NStates,
		maxIter:     cfg.MaxIterations,
		tol:         cfg.Tolerance,
		randomState: cfg.Seed,
		version:     "1.0.0",
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// WithNStates は隠れ状態数を設定
func WithNStates(n int) GaussianHMMOption {
	return func(g *GaussianHMM) {
		g.nStates = n
	}
}

// WithMaxIter は最大反復回数を設定
func WithMaxIter(maxIter int) GaussianHMMOption {
	return func(g *GaussianHMM) {
		g.maxIter = maxIter
	}
}

// WithTol は収束判定の許容誤差を設定
func WithTol(tol float64) GaussianHMMOption {
	return func(g *GaussianHMM) {
		g.tol = tol
	}
}

// WithRandomState は初期化のシードを設定
func WithRandomState(seed uint64) GaussianHMMOption {
	return func(g *GaussianHMM) {
		g.randomState = seed
	}
}

// WithKeepHistory は各反復のモデルを保持するかを設定
func WithKeepHistory(keep bool) GaussianHMMOption {
	return func(g *GaussianHMM) {
		g.keepHistory = keep
	}
}

// WithLogger は学習ログの出力先を設定
func WithLogger(logger log.Logger) GaussianHMMOption {
	return func(g *GaussianHMM) {
		g.logger = logger
	}
}

func (g *GaussianHMM) config() TrainConfig {
	logger := g.logger
	if logger == nil {
		logger = log.GetLogger()
	}
	return TrainConfig{
		NStates:       g.nStates,
		MaxIterations: g.maxIter,
		Tolerance:     g.tol,
		Seed:          g.randomState,
		KeepHistory:   g.keepHistory,
		Logger:        logger.With(log.ModelNameKey, gaussianHMMName),
	}
}

// Fit はBaum-Welchでモデルを学習
func (g *GaussianHMM) Fit(obs []float64) (err error) {
	defer errors.Recover(&err, "GaussianHMM.Fit")

	g.mu.Lock()
	defer g.mu.Unlock()

	res, err := TrainWithConfig(obs, g.config())
	if err != nil {
		// 学習に失敗したら以前の学習結果も破棄して未学習に戻す
		g.resetFitted()
		return err
	}

	g.model_ = res.Model
	g.trace_ = res.LogLikelihoods
	g.converged_ = res.Converged
	g.nIter_ = res.Iterations
	g.diagnostics_ = res.Diagnostics
	g.history_ = res.History

	g.state.SetFitted()
	g.state.SetDimensions(g.nStates, len(obs))
	return nil
}

// resetFitted は学習結果を破棄します。呼び出し側が g.mu を保持していること。
func (g *GaussianHMM) resetFitted() {
	g.model_ = nil
	g.trace_ = nil
	g.converged_ = false
	g.nIter_ = 0
	g.diagnostics_ = Diagnostics{}
	g.history_ = nil
	g.state.Reset()
}

func (g *GaussianHMM) fittedModel(method string) (*ContinuousHMM, error) {
	if err := g.state.RequireFitted(gaussianHMMName, method); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.model_, nil
}

// Predict はViterbiで最尤の状態系列を返す
func (g *GaussianHMM) Predict(obs []float64) ([]int, error) {
	m, err := g.fittedModel("Predict")
	if err != nil {
		return nil, err
	}
	return Viterbi(m, obs)
}

// Score は観測系列の対数尤度を返す
func (g *GaussianHMM) Score(obs []float64) (float64, error) {
	m, err := g.fittedModel("Score")
	if err != nil {
		return 0, err
	}
	return LogLikelihood(m, obs)
}

// Sample は学習済みモデルから長さnの系列を生成
func (g *GaussianHMM) Sample(n int, seed uint64) ([]float64, []int, error) {
	m, err := g.fittedModel("Sample")
	if err != nil {
		return nil, nil, err
	}
	if n < 0 {
		return nil, nil, errors.NewValidationError("n", "must be non-negative", n)
	}
	obs, states := GenerateSequence(m, n, seed)
	return obs, states, nil
}

// Model は学習済みのスナップショットを返す（未学習ならnil）
func (g *GaussianHMM) Model() *ContinuousHMM {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.model_
}

// Converged は最後の学習が許容誤差内に収束したかを返す
func (g *GaussianHMM) Converged() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.converged_
}

// LogLikelihoodTrace は各反復の対数尤度のコピーを返す
func (g *GaussianHMM) LogLikelihoodTrace() []float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]float64(nil), g.trace_...)
}

// NIterations は実行された反復回数を返す
func (g *GaussianHMM) NIterations() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nIter_
}

// Diagnostics は学習中の数値的退化の記録を返す
func (g *GaussianHMM) Diagnostics() Diagnostics {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.diagnostics_
}

// History は KeepHistory 有効時の各反復のスナップショットを返す
func (g *GaussianHMM) History() []*ContinuousHMM {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*ContinuousHMM(nil), g.history_...)
}

// IsFitted returns whether the model has been fitted
func (g *GaussianHMM) IsFitted() bool {
	return g.state.IsFitted()
}

// GetParams returns the model's hyperparameters (scikit-learn compatible)
func (g *GaussianHMM) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_states":     g.nStates,
		"max_iter":     g.maxIter,
		"tol":          g.tol,
		"random_state": g.randomState,
		"keep_history": g.keepHistory,
	}
}

// SetParams sets the model's hyperparameters (scikit-learn compatible).
// Numeric values decoded from JSON arrive as float64 and are accepted.
func (g *GaussianHMM) SetParams(params map[string]interface{}) error {
	if v, ok := params["n_states"]; ok {
		n, ok := asInt(v)
		if !ok || n < 1 {
			return errors.NewValidationError("n_states", "must be a positive integer", v)
		}
		g.nStates = n
	}
	if v, ok := params["max_iter"]; ok {
		n, ok := asInt(v)
		if !ok || n < 0 {
			return errors.NewValidationError("max_iter", "must be a non-negative integer", v)
		}
		g.maxIter = n
	}
	if v, ok := params["tol"]; ok {
		tol, ok := v.(float64)
		if !ok || tol < 0 {
			return errors.NewValidationError("tol", "must be a non-negative float", v)
		}
		g.tol = tol
	}
	if v, ok := params["random_state"]; ok {
		seed, ok := asUint64(v)
		if !ok {
			return errors.NewValidationError("random_state", "must be a non-negative integer", v)
		}
		g.randomState = seed
	}
	if v, ok := params["keep_history"].(bool); ok {
		g.keepHistory = v
	}
	return nil
}

func asInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint64:
		return int(x), x <= math.MaxInt
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > 1<<53 {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
}

// asUint64 はシード値を受け取ります。2^53を超えるシードはJSONのfloat64では
// 正確に表せないため、ExportWeightsは10進文字列で書き出します。
func asUint64(v interface{}) (uint64, bool) {
	switch x := v.(type) {
	case uint64:
		return x, true
	case int:
		return uint64(x), x >= 0
	case int64:
		return uint64(x), x >= 0
	case string:
		n, err := strconv.ParseUint(x, 10, 64)
		return n, err == nil
	case float64:
		if x < 0 || x >= 1<<64 || x != math.Trunc(x) {
			return 0, false
		}
		return uint64(x), true
	default:
		return 0, false
	}
}

// ExportWeights はモデルのパラメータをエクスポート（完全な再現性を保証）
func (g *GaussianHMM) ExportWeights() (*model.ModelWeights, error) {
	m, err := g.fittedModel("ExportWeights")
	if err != nil {
		return nil, err
	}
	_, nSamples := g.state.GetDimensions()

	g.mu.RLock()
	defer g.mu.RUnlock()

	p := m.Params()
	hyper := g.GetParams()
	hyper["random_state"] = strconv.FormatUint(g.randomState, 10)
	weights := &model.ModelWeights{
		ModelType:       gaussianHMMName,
		Version:         g.version,
		NStates:         p.NStates,
		Transition:      p.Transition,
		Initial:         p.Initial,
		Means:           p.Means,
		Variances:       p.Variances,
		IsFitted:        true,
		Hyperparameters: hyper,
		Metadata: map[string]interface{}{
			"n_samples":  nSamples,
			"n_iter":     g.nIter_,
			"converged":  g.converged_,
			"iterations": len(g.trace_),
		},
	}
	weights.Metadata["checksum"] = weights.Checksum()
	return weights, nil
}

// ImportWeights はモデルのパラメータをインポート（完全な再現性を保証）
// 重みの不整合は原因のエラーを包んだ ModelError で返します。
func (g *GaussianHMM) ImportWeights(weights *model.ModelWeights) error {
	const op = "GaussianHMM.ImportWeights"
	if weights == nil {
		return errors.NewValueError(op, "weights cannot be nil")
	}
	if weights.ModelType != gaussianHMMName {
		return errors.NewModelError(op, "incompatible weights",
			errors.Wrapf(errors.ErrModelTypeMismatch, "expected %s, got %s", gaussianHMMName, weights.ModelType))
	}
	if !weights.IsFitted {
		return errors.NewValueError(op, "weights are not fitted")
	}
	if err := weights.Validate(); err != nil {
		return errors.NewModelError(op, "invalid weights", err)
	}

	m, err := NewContinuousHMMFromParams(Params{
		NStates:    weights.NStates,
		Transition: weights.Transition,
		Initial:    weights.Initial,
		Means:      weights.Means,
		Variances:  weights.Variances,
	})
	if err != nil {
		return errors.NewModelError(op, "invalid weights", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.SetParams(weights.Hyperparameters); err != nil {
		return errors.NewModelError(op, "invalid hyperparameters", err)
	}
	g.nStates = weights.NStates
	g.model_ = m
	g.trace_ = nil
	g.history_ = nil
	g.diagnostics_ = Diagnostics{}
	g.converged_, _ = weights.Metadata["converged"].(bool)
	g.nIter_, _ = asInt(weights.Metadata["n_iter"])
	nSamples, _ := asInt(weights.Metadata["n_samples"])

	g.state.SetFitted()
	g.state.SetDimensions(g.nStates, nSamples)
	return nil
}

// GetWeightHash calculates the hash value of the parameters (for verification)
func (g *GaussianHMM) GetWeightHash() string {
	weights, err := g.ExportWeights()
	if err != nil {
		return ""
	}
	return weights.Checksum()
}

// Save はモデルをgob形式でファイルに保存
func (g *GaussianHMM) Save(path string) error {
	weights, err := g.ExportWeights()
	if err != nil {
		return err
	}
	return model.SaveModel(weights, path)
}

// Load はSaveで保存したファイルからモデルを復元
func (g *GaussianHMM) Load(path string) error {
	var weights model.ModelWeights
	if err := model.LoadModel(&weights, path); err != nil {
		return err
	}
	return g.ImportWeights(&weights)
}

// String returns the string representation of the model
func (g *GaussianHMM) String() string {
	if m := g.Model(); m != nil {
		return m.String()
	}
	return fmt.Sprintf("GaussianHMM(n_states=%d, max_iter=%d, tol=%g, fitted=false)", g.nStates, g.maxIter, g.tol)
}

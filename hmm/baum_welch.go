package hmm

import (
	"math"
	"time"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
	"github.com/YuminosukeSato/hmmgo/pkg/log"
)

// TrainStatus は Baum-Welch 学習器の状態です。
type TrainStatus int

const (
	StatusInitializing TrainStatus = iota
	StatusIterating
	StatusConverged
	// StatusExhausted は反復上限に達したことを表します。エラーではありません。
	StatusExhausted
)

func (s TrainStatus) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusIterating:
		return "iterating"
	case StatusConverged:
		return "converged"
	case StatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// TrainConfig は Baum-Welch 学習の設定です。
type TrainConfig struct {
	// NStates は隠れ状態数です。BaumWelch では0なら初期モデルの状態数を使います。
	NStates       int
	MaxIterations int
	// Tolerance は |LL − prevLL| < Tolerance で収束とみなす閾値です。
	Tolerance float64
	// Seed は RandomInit のシードです（Train のみが使用）。
	Seed uint64
	// KeepHistory が true なら各反復のスナップショットを TrainResult.History に残します。
	KeepHistory bool
	// Logger が nil なら log.GetLogger() を使います。
	Logger log.Logger
}

// DefaultTrainConfig returns a 2-state configuration with 100 iterations and
// tolerance 1e-6.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		NStates:       2,
		MaxIterations: 100,
		Tolerance:     1e-6,
		Seed:          42,
	}
}

func (c TrainConfig) validate() error {
	if c.NStates < 1 {
		return errors.NewValidationError("n_states", "must be at least 1", c.NStates)
	}
	if c.MaxIterations < 0 {
		return errors.NewValidationError("max_iterations", "must be non-negative", c.MaxIterations)
	}
	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) {
		return errors.NewValidationError("tolerance", "must be non-negative", c.Tolerance)
	}
	return nil
}

// TrainResult は学習の結果です。
type TrainResult struct {
	// Model は最後の反復のMステップが返したスナップショットです。
	Model *ContinuousHMM
	// LogLikelihoods は各反復の前向きアルゴリズムで得た対数尤度（Mステップ前のモデルのもの）です。
	LogLikelihoods []float64
	Converged      bool
	Status         TrainStatus
	Iterations     int
	Diagnostics    Diagnostics
	// History[0] は初期モデル、History[k] は k 回目の反復後のモデルです。
	History []*ContinuousHMM
}

// FinalLogLikelihood returns the last recorded log-likelihood, or -Inf when
// no iteration ran.
func (r *TrainResult) FinalLogLikelihood() float64 {
	if len(r.LogLikelihoods) == 0 {
		return math.Inf(-1)
	}
	return r.LogLikelihoods[len(r.LogLikelihoods)-1]
}

// Train は RandomInit(nStates, seed) から Baum-Welch で学習します。
func Train(obs []float64, nStates, maxIterations int, tolerance float64, seed uint64) (*TrainResult, error) {
	cfg := DefaultTrainConfig()
	cfg.NStates = nStates
	cfg.MaxIterations = maxIterations
	cfg.Tolerance = tolerance
	cfg.Seed = seed
	return TrainWithConfig(obs, cfg)
}

// TrainWithConfig は cfg.Seed で初期化したモデルから Baum-Welch で学習します。
func TrainWithConfig(obs []float64, cfg TrainConfig) (*TrainResult, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return BaumWelch(RandomInit(cfg.NStates, cfg.Seed), obs, cfg)
}

// BaumWelch は初期モデル m から EM を実行します。m も obs も変更しません。
//
// 各反復は 前向き → 後ろ向き → 事後確率 → Mステップ の順に進み、
// |LL − prevLL| < Tolerance で収束、反復上限で打ち切りになります。
// 打ち切りはエラーではなく、ConvergenceWarning を errors.Warn に通知します。
func BaumWelch(m *ContinuousHMM, obs []float64, cfg TrainConfig) (*TrainResult, error) {
	const op = "BaumWelch"
	if err := checkObservations(op, m, obs); err != nil {
		return nil, err
	}
	if cfg.NStates == 0 {
		cfg.NStates = m.nStates
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.NStates != m.nStates {
		return nil, errors.NewDimensionError(op, cfg.NStates, m.nStates, 0)
	}
	if err := errors.CheckNumericalStability("observations", obs, 0); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	logger = logger.With(log.ComponentKey, "hmm", log.OperationKey, log.OperationFit)

	res := &TrainResult{
		Model:          m,
		Status:         StatusInitializing,
		LogLikelihoods: make([]float64, 0, cfg.MaxIterations),
	}
	if cfg.KeepHistory {
		res.History = append(res.History, m)
	}

	logger.Info("Starting Baum-Welch training",
		log.SamplesKey, len(obs),
		log.StatesKey, cfg.NStates,
		log.MaxIterationsKey, cfg.MaxIterations,
		log.ToleranceKey, cfg.Tolerance,
	)
	start := time.Now()

	res.Status = StatusIterating
	prevLL := math.Inf(-1)
	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		b := emissionTable(res.Model.emissions, obs)
		fwd := forward(res.Model, obs, b)
		bwd := backward(res.Model, obs, b)
		post := posteriors(res.Model, fwd.Alpha, bwd.Beta, b)
		next, stats := Reestimate(res.Model, obs, post)

		res.Diagnostics.addForward(fwd)
		res.Diagnostics.addBackward(bwd)
		res.Diagnostics.addPosterior(post)
		res.Diagnostics.addMStep(stats)

		res.Model = next
		res.Iterations = iter
		if cfg.KeepHistory {
			res.History = append(res.History, next)
		}

		ll := fwd.LogLikelihood
		if err := errors.CheckScalar("log-likelihood", ll, iter); err != nil {
			return nil, err
		}
		res.LogLikelihoods = append(res.LogLikelihoods, ll)
		improvement := ll - prevLL

		fields := []any{log.IterationKey, iter, log.LogLikelihoodKey, ll}
		if !math.IsInf(prevLL, -1) {
			fields = append(fields, log.ImprovementKey, improvement)
		}
		logger.Debug("EM iteration", fields...)

		if improvement < -cfg.Tolerance {
			res.Diagnostics.LogLikeDecreased++
			w := errors.NewLikelihoodDecreaseWarning(iter, prevLL, ll)
			logger.Warn(w.Error(), log.IterationKey, iter, log.ImprovementKey, improvement)
		}

		if math.Abs(improvement) < cfg.Tolerance {
			res.Status = StatusConverged
			res.Converged = true
			break
		}
		prevLL = ll
	}

	if !res.Converged {
		res.Status = StatusExhausted
		errors.Warn(errors.NewConvergenceWarning(op, res.Iterations, ""))
	}

	logger.Info("Baum-Welch training finished",
		log.StatusKey, res.Status.String(),
		log.ConvergedKey, res.Converged,
		log.IterationKey, res.Iterations,
		log.LogLikelihoodKey, res.FinalLogLikelihood(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// Package model は系列モデルの共通インターフェース、学習状態の管理、
// 重みのエクスポートと永続化を提供します。
package model

// Fitter は観測系列から学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを観測系列で学習させる
	Fit(obs []float64) error
}

// Decoder は観測系列を隠れ状態系列に復号するモデルのインターフェース
type Decoder interface {
	// Predict は各時刻の隠れ状態を返す
	Predict(obs []float64) ([]int, error)
}

// Scorer は観測系列の対数尤度を計算できるモデルのインターフェース
type Scorer interface {
	// Score は ln P(obs | model) を返す
	Score(obs []float64) (float64, error)
}

// Sampler は学習済みモデルから系列を生成できるモデルのインターフェース
type Sampler interface {
	// Sample は長さnの観測系列と状態系列を生成する
	Sample(n int, seed uint64) ([]float64, []int, error)
}

// SequenceModel combines the interfaces every fitted sequence model offers.
type SequenceModel interface {
	Fitter
	Decoder
	Scorer
	Sampler

	// IsFitted はモデルが学習済みかどうかを返す
	IsFitted() bool
}

// ParameterGetter is the interface for models that expose their hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow hyperparameter modification.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}

// WeightExporter はモデルの重みを ModelWeights としてやり取りできるモデルのインターフェース
type WeightExporter interface {
	ExportWeights() (*ModelWeights, error)
	ImportWeights(weights *ModelWeights) error
	GetWeightHash() string
}

// Persistable is the interface for models that can be saved and loaded.
type Persistable interface {
	Save(path string) error
	Load(path string) error
}

package model

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"
	"os"

	"github.com/YuminosukeSato/hmmgo/pkg/errors"
)

// ModelWeights はHMMのパラメータを表す構造体（シリアライゼーション用）
type ModelWeights struct {
	// ModelType はモデルの種類（GaussianHMM等）
	ModelType string `json:"model_type"`

	// Version はモデルのバージョン（互換性チェック用）
	Version string `json:"version"`

	// NStates は隠れ状態数
	NStates int `json:"n_states"`

	// Transition は n×n の遷移確率行列（行ごと）
	Transition [][]float64 `json:"transition"`

	// Initial は初期状態分布
	Initial []float64 `json:"initial"`

	// Means と Variances は各状態のガウス放出パラメータ
	Means     []float64 `json:"means"`
	Variances []float64 `json:"variances"`

	// Hyperparameters はモデルのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metadata は追加のメタデータ（学習時の統計、チェックサム等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	return json.Unmarshal(data, mw)
}

// SaveJSON はModelWeightsをJSONファイルに書き出す
func (mw *ModelWeights) SaveJSON(path string) error {
	data, err := mw.ToJSON()
	if err != nil {
		return errors.Wrap(err, "failed to encode weights")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write weights to %s", path)
	}
	return nil
}

// LoadWeightsJSON はJSONファイルからModelWeightsを読み込む
func LoadWeightsJSON(path string) (*ModelWeights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read weights from %s", path)
	}
	mw := &ModelWeights{}
	if err := mw.FromJSON(data); err != nil {
		return nil, errors.Wrap(err, "failed to decode weights")
	}
	return mw, nil
}

// Checksum はパラメータ部分（遷移・初期分布・平均・分散）のSHA-256を16進文字列で返す
// 各値はIEEE 754のビット列で書き込むため、NaNや±Infを含んでいても値ごとに異なるハッシュになります。
func (mw *ModelWeights) Checksum() string {
	h := sha256.New()
	var buf [8]byte
	write := func(values []float64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(values)))
		h.Write(buf[:])
		for _, v := range values {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}

	binary.LittleEndian.PutUint64(buf[:], uint64(len(mw.Transition)))
	h.Write(buf[:])
	for _, row := range mw.Transition {
		write(row)
	}
	write(mw.Initial)
	write(mw.Means)
	write(mw.Variances)
	return hex.EncodeToString(h.Sum(nil))
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version == "" {
		return errors.NewValidationError("version", "is required", mw.Version)
	}
	if !mw.IsFitted {
		if len(mw.Means) > 0 {
			return errors.NewValidationError("means", "unfitted model should not have parameters", len(mw.Means))
		}
		return nil
	}

	n := mw.NStates
	if n < 1 {
		return errors.NewValidationError("n_states", "fitted model must have at least one state", n)
	}
	if len(mw.Transition) != n {
		return errors.NewDimensionError("ModelWeights.Validate", n, len(mw.Transition), 0)
	}
	for _, row := range mw.Transition {
		if len(row) != n {
			return errors.NewDimensionError("ModelWeights.Validate", n, len(row), 1)
		}
	}
	for _, v := range [][]float64{mw.Initial, mw.Means, mw.Variances} {
		if len(v) != n {
			return errors.NewDimensionError("ModelWeights.Validate", n, len(v), 0)
		}
	}

	for i, row := range mw.Transition {
		if err := errors.CheckNumericalStability("transition", row, i); err != nil {
			return err
		}
	}
	for _, v := range [][]float64{mw.Initial, mw.Means, mw.Variances} {
		if err := errors.CheckNumericalStability("ModelWeights.Validate", v, 0); err != nil {
			return err
		}
	}

	if checksum, ok := mw.Metadata["checksum"].(string); ok && checksum != mw.Checksum() {
		return errors.Wrap(errors.ErrChecksumMismatch, "weights may be corrupted")
	}
	return nil
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		NStates:         mw.NStates,
		IsFitted:        mw.IsFitted,
		Transition:      make([][]float64, len(mw.Transition)),
		Initial:         append([]float64(nil), mw.Initial...),
		Means:           append([]float64(nil), mw.Means...),
		Variances:       append([]float64(nil), mw.Variances...),
		Hyperparameters: make(map[string]interface{}, len(mw.Hyperparameters)),
		Metadata:        make(map[string]interface{}, len(mw.Metadata)),
	}
	for i, row := range mw.Transition {
		clone.Transition[i] = append([]float64(nil), row...)
	}
	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}
	for k, v := range mw.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// Package entity はclassifyフィーチャーのドメインモデルを定義します。
package entity

// Prediction は1回の推論で得られた結果です。
// Probabilities の添字はモデルのラベル順と一致します。
type Prediction struct {
	Label         string    `json:"label"`         // 予測されたクラスラベル
	Index         int       `json:"index"`         // 予測されたクラスの添字
	Probabilities []float32 `json:"probabilities"` // 全クラスの確率分布（合計1.0）
}

// Confidence は予測クラスの確率を返します。添字が範囲外の場合は0を返します。
func (p Prediction) Confidence() float32 {
	if p.Index < 0 || p.Index >= len(p.Probabilities) {
		return 0
	}
	return p.Probabilities[p.Index]
}

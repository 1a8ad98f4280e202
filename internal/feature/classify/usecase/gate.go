package usecase

import "fmt"

// DefaultThresholdPercent は予測を表示するための信頼度の下限（%）です。この値ちょうどは不合格です。
const DefaultThresholdPercent = 70.0

// ConfidenceGate は予測確率が閾値を超えているかを判定します。状態は持ちません。
type ConfidenceGate struct {
	threshold float64
}

// NewConfidenceGate は閾値（%）を指定してConfidenceGateを生成します。
// 0以下または100以上の値は DefaultThresholdPercent に置き換えます。
func NewConfidenceGate(thresholdPercent float64) ConfidenceGate {
	if thresholdPercent <= 0 || thresholdPercent >= 100 {
		thresholdPercent = DefaultThresholdPercent
	}
	return ConfidenceGate{threshold: thresholdPercent}
}

// Threshold は閾値（%）を返します。
func (g ConfidenceGate) Threshold() float64 {
	return g.threshold
}

// Evaluate は確率をパーセントに変換し、閾値を厳密に超えているかを返します。
func (g ConfidenceGate) Evaluate(probability float32) (percent float64, confident bool) {
	percent = float64(probability) * 100
	return percent, percent > g.threshold
}

// FormatPercent は信頼度を小数点以下2桁のパーセント表記にします（例: "92.00%"）。
func FormatPercent(percent float64) string {
	return fmt.Sprintf("%.2f%%", percent)
}

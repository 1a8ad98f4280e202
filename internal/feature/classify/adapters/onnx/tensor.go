package onnx

import (
	"math"

	"dino_classifier/internal/feature/classify/domain/entity"
)

// ToTensor は正規化済み画像をNCHW順のfloat32配列に変換します。
// 各画素は [0,1] にスケールした後、チャンネルごとの平均・標準偏差で標準化します。
func ToTensor(img *entity.NormalizedImage, mean, std [3]float32) []float32 {
	plane := img.Width * img.Height
	out := make([]float32, entity.Channels*plane)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b := img.RGBAt(x, y)
			i := y*img.Width + x
			out[i] = (float32(r)/255 - mean[0]) / std[0]
			out[plane+i] = (float32(g)/255 - mean[1]) / std[1]
			out[2*plane+i] = (float32(b)/255 - mean[2]) / std[2]
		}
	}
	return out
}

// Softmax はロジットを確率分布に変換します。最大値を引いてオーバーフローを防ぎます。
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}
	maxV := logits[0]
	for _, v := range logits[1:] {
		if v > maxV {
			maxV = v
		}
	}
	exps := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		exps[i] = math.Exp(float64(v - maxV))
		sum += exps[i]
	}
	out := make([]float32, len(logits))
	for i, e := range exps {
		out[i] = float32(e / sum)
	}
	return out
}

// Renormalize は確率出力の負値を0に切り詰め、合計が1になるよう正規化します。
// 合計が0の場合は一様分布を返します。
func Renormalize(probs []float32) []float32 {
	out := make([]float32, len(probs))
	var sum float64
	for i, v := range probs {
		if v > 0 && !math.IsNaN(float64(v)) {
			out[i] = v
			sum += float64(v)
		}
	}
	if sum == 0 {
		for i := range out {
			out[i] = 1 / float32(len(out))
		}
		return out
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// Argmax は最大値の添字を返します。同値の場合は先頭を優先します。空の場合は-1です。
func Argmax(values []float32) int {
	if len(values) == 0 {
		return -1
	}
	best := 0
	for i, v := range values[1:] {
		if v > values[best] {
			best = i + 1
		}
	}
	return best
}

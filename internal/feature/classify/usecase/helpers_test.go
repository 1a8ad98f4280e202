package usecase_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"dino_classifier/internal/feature/classify/domain/entity"
)

// mockPredictor はPredictorインターフェースのモック実装です。
type mockPredictor struct {
	PredictFunc  func(ctx context.Context, img *entity.NormalizedImage) (*entity.Prediction, error)
	PredictCalls int
	labels       []string
}

func (m *mockPredictor) Predict(ctx context.Context, img *entity.NormalizedImage) (*entity.Prediction, error) {
	m.PredictCalls++
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, img)
	}
	return nil, errors.New("PredictFunc is not implemented")
}

func (m *mockPredictor) Labels() []string {
	if m.labels != nil {
		return m.labels
	}
	return entity.DefaultLabels
}

// fixedPrediction は指定ラベルに確率pを割り当て、残りを均等に分配した予測を返すモックを生成します。
func fixedPrediction(label string, p float32) func(context.Context, *entity.NormalizedImage) (*entity.Prediction, error) {
	return func(context.Context, *entity.NormalizedImage) (*entity.Prediction, error) {
		probs := make([]float32, len(entity.DefaultLabels))
		idx := -1
		for i, l := range entity.DefaultLabels {
			if l == label {
				idx = i
			}
		}
		rest := (1 - p) / float32(len(probs)-1)
		for i := range probs {
			probs[i] = rest
		}
		probs[idx] = p
		return &entity.Prediction{Label: label, Index: idx, Probabilities: probs}, nil
	}
}

// mockRecorder はRecorderインターフェースのモック実装です。
type mockRecorder struct {
	outcomes   []string
	inferences int
}

func (m *mockRecorder) ObserveInference(time.Duration) { m.inferences++ }

func (m *mockRecorder) RecordOutcome(outcome string) { m.outcomes = append(m.outcomes, outcome) }

// encodePNG は単色のNRGBA画像をPNGにエンコードします。
func encodePNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// encodeJPEG は単色のRGBA画像をJPEGにエンコードします。
func encodeJPEG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// pngHeaderOnly はIHDRだけを持つPNGを生成します。画素データを持たないため
// 宣言サイズ分のメモリを確保しようとするとテストがOOMで落ちます。
func pngHeaderOnly(t *testing.T, width, height uint32) []byte {
	t.Helper()

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

// Package usecase はclassifyフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"dino_classifier/internal/feature/classify/domain"
	"dino_classifier/internal/feature/classify/domain/entity"
)

const (
	// MaxImageSize は画像アップロードの最大サイズ（10MB）です。
	MaxImageSize = 10 * 1024 * 1024
	// NotConfidentMessage は信頼度が閾値以下の場合に表示する固定メッセージです。
	NotConfidentMessage = "The model is not detecting a dinosaur with sufficient confidence."
	// probabilityTolerance は確率分布の合計が1.0から許容されるずれです。
	probabilityTolerance = 1e-4
)

// 判定結果の分類（メトリクス用）。
const (
	OutcomeConfident      = "confident"
	OutcomeNotConfident   = "not_confident"
	OutcomeRejected       = "rejected"
	OutcomeDecodeError    = "decode_error"
	OutcomeInferenceError = "inference_error"
)

// Predictor は正規化済み画像に対して1回の推論を行うインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Predictor interface {
	// Predict は予測ラベル・添字・確率分布を返します。
	Predict(ctx context.Context, img *entity.NormalizedImage) (*entity.Prediction, error)
	// Labels はモデルのラベル集合を出力順に返します。
	Labels() []string
}

// Recorder は推論の計測値を記録するインターフェースです。
type Recorder interface {
	ObserveInference(d time.Duration)
	RecordOutcome(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveInference(time.Duration) {}
func (nopRecorder) RecordOutcome(string)           {}

// Option はclassifyUsecaseの設定を変更します。
type Option func(*classifyUsecase)

// WithThreshold は信頼度の閾値（%）を設定します。
func WithThreshold(percent float64) Option {
	return func(u *classifyUsecase) { u.gate = NewConfidenceGate(percent) }
}

// WithMaxImageSize はアップロード画像の最大バイト数を設定します。0以下は無視します。
func WithMaxImageSize(n int) Option {
	return func(u *classifyUsecase) {
		if n > 0 {
			u.maxImageSize = n
		}
	}
}

// WithMaxPixels はデコードを許可する画素数の上限を設定します。0以下は無視します。
func WithMaxPixels(n int) Option {
	return func(u *classifyUsecase) {
		if n > 0 {
			u.normalizer = NewImageNormalizer(n)
		}
	}
}

// WithRecorder はメトリクスの記録先を設定します。
func WithRecorder(r Recorder) Option {
	return func(u *classifyUsecase) {
		if r != nil {
			u.recorder = r
		}
	}
}

// classifyUsecase は画像分類のパイプライン（正規化→推論→信頼度判定→説明文）を提供します。
type classifyUsecase struct {
	predictor    Predictor
	normalizer   *ImageNormalizer
	gate         ConfidenceGate
	maxImageSize int
	recorder     Recorder
}

// NewClassifyUsecase はclassifyUsecaseの新しいインスタンスを生成します。
func NewClassifyUsecase(p Predictor, opts ...Option) *classifyUsecase {
	u := &classifyUsecase{
		predictor:    p,
		normalizer:   NewImageNormalizer(MaxImagePixels),
		gate:         NewConfidenceGate(DefaultThresholdPercent),
		maxImageSize: MaxImageSize,
		recorder:     nopRecorder{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Classify は画像データを分類し、表示用の結果を返します。
// デコードに失敗した場合は推論を行わずに domain.ErrDecode を返します。
func (u *classifyUsecase) Classify(ctx context.Context, imageData []byte) (*entity.Classification, error) {
	if len(imageData) == 0 {
		u.recorder.RecordOutcome(OutcomeRejected)
		return nil, domain.ErrEmptyImage
	}
	if len(imageData) > u.maxImageSize {
		u.recorder.RecordOutcome(OutcomeRejected)
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrImageTooLarge, len(imageData), u.maxImageSize)
	}
	if u.predictor == nil {
		return nil, domain.ErrPredictorUnavailable
	}

	img, err := u.normalizer.Normalize(imageData)
	if err != nil {
		if errors.Is(err, domain.ErrImageTooLarge) {
			u.recorder.RecordOutcome(OutcomeRejected)
		} else {
			u.recorder.RecordOutcome(OutcomeDecodeError)
		}
		return nil, err
	}

	start := time.Now()
	pred, err := u.predictor.Predict(ctx, img)
	u.recorder.ObserveInference(time.Since(start))
	if err != nil {
		u.recorder.RecordOutcome(OutcomeInferenceError)
		if errors.Is(err, domain.ErrInference) || errors.Is(err, domain.ErrPredictorUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInference, err)
	}
	if err := validatePrediction(pred, u.predictor.Labels()); err != nil {
		u.recorder.RecordOutcome(OutcomeInferenceError)
		return nil, err
	}

	percent, confident := u.gate.Evaluate(pred.Confidence())
	slog.InfoContext(ctx, "classification completed",
		"label", pred.Label,
		"confidence", percent,
		"confident", confident,
		"threshold", u.gate.Threshold(),
	)

	result := &entity.Classification{Preview: img, Confident: confident}
	if !confident {
		u.recorder.RecordOutcome(OutcomeNotConfident)
		result.Message = NotConfidentMessage
		return result, nil
	}

	u.recorder.RecordOutcome(OutcomeConfident)
	result.Label = pred.Label
	result.ConfidenceText = FormatPercent(percent)
	result.Description = entity.Describe(pred.Label)
	return result, nil
}

// ListSpecies はモデルが識別できる種の一覧を説明文付きで返します。
func (u *classifyUsecase) ListSpecies(_ context.Context) []entity.SpeciesInfo {
	labels := entity.DefaultLabels
	if u.predictor != nil {
		labels = u.predictor.Labels()
	}
	out := make([]entity.SpeciesInfo, 0, len(labels))
	for _, l := range labels {
		out = append(out, entity.SpeciesInfo{Label: l, Description: entity.Describe(l)})
	}
	return out
}

// validatePrediction は推論結果の形がラベル集合と整合しているかを検証します。
func validatePrediction(p *entity.Prediction, labels []string) error {
	if p == nil {
		return fmt.Errorf("%w: empty prediction", domain.ErrInference)
	}
	if len(p.Probabilities) != len(labels) {
		return fmt.Errorf("%w: got %d probabilities for %d labels", domain.ErrInference, len(p.Probabilities), len(labels))
	}
	if p.Index < 0 || p.Index >= len(labels) {
		return fmt.Errorf("%w: predicted index %d out of range", domain.ErrInference, p.Index)
	}
	if p.Label != labels[p.Index] {
		return fmt.Errorf("%w: label %q does not match index %d (%q)", domain.ErrInference, p.Label, p.Index, labels[p.Index])
	}
	var sum float64
	for _, v := range p.Probabilities {
		if v < 0 || math.IsNaN(float64(v)) {
			return fmt.Errorf("%w: invalid probability %v", domain.ErrInference, v)
		}
		sum += float64(v)
	}
	if math.Abs(sum-1) > probabilityTolerance {
		return fmt.Errorf("%w: probabilities sum to %f", domain.ErrInference, sum)
	}
	return nil
}

package onnx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"dino_classifier/internal/feature/classify/domain"
	"dino_classifier/internal/feature/classify/domain/entity"
	"dino_classifier/internal/feature/classify/usecase"
)

// ONNX Runtimeの環境はプロセスで1つだけ初期化します。
var envMu sync.Mutex

// ONNXPredictor はONNX Runtimeのセッションを使って恐竜画像を分類します。
// 生成後は読み取り専用で、テンソルは呼び出しごとに確保するため並行に利用できます。
type ONNXPredictor struct {
	session  *ort.DynamicAdvancedSession
	metadata Metadata
	modelID  string
}

// ONNXPredictorがPredictorを実装していることをコンパイル時に検証します。
var _ usecase.Predictor = (*ONNXPredictor)(nil)

// NewONNXPredictor はメタデータとモデルファイルを読み込み、推論セッションを生成します。
// モデルが存在しない・壊れている場合はエラーを返します（起動失敗として扱う）。
func NewONNXPredictor(cfg Config) (*ONNXPredictor, error) {
	md, err := LoadMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, err
	}

	digest, err := fileDigest(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", cfg.ModelPath, err)
	}

	if err := initEnvironment(cfg.SharedLibPath); err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{md.InputName}, []string{md.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", cfg.ModelPath, err)
	}

	p := &ONNXPredictor{session: session, metadata: md, modelID: md.Name + "@" + digest}
	slog.Info("model loaded",
		"model", p.modelID,
		"path", cfg.ModelPath,
		"classes", md.Classes,
		"output", md.Output,
	)
	for _, c := range md.Classes {
		if !entity.HasDescription(c) {
			slog.Warn("no description for class, fallback text will be shown", "class", c)
		}
	}
	return p, nil
}

// fileDigest はモデルファイルのSHA-256の先頭12桁を返します。
func fileDigest(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:12], nil
}

func initEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

// Ready はセッションが利用可能かを返します。
func (p *ONNXPredictor) Ready() bool {
	return p != nil && p.session != nil
}

// ModelID はメタデータの名前とモデルファイルのダイジェストから成る識別子を返します。
// モデルを差し替えるとIDも変わるため、推論結果のキャッシュキーに使用します。
func (p *ONNXPredictor) ModelID() string {
	return p.modelID
}

// Labels はモデルのラベルを出力順に返します。
func (p *ONNXPredictor) Labels() []string {
	out := make([]string, len(p.metadata.Classes))
	copy(out, p.metadata.Classes)
	return out
}

// Predict は1回の順伝播を行い、予測ラベルと確率分布を返します。
func (p *ONNXPredictor) Predict(_ context.Context, img *entity.NormalizedImage) (*entity.Prediction, error) {
	if p == nil || p.session == nil {
		return nil, domain.ErrPredictorUnavailable
	}
	if img == nil || img.Width != p.metadata.ImageSize || img.Height != p.metadata.ImageSize {
		return nil, fmt.Errorf("%w: input image must be %dx%d", domain.ErrInference, p.metadata.ImageSize, p.metadata.ImageSize)
	}

	input, err := ort.NewTensor(ort.NewShape(p.metadata.InputShape()...), ToTensor(img, p.metadata.Mean, p.metadata.Std))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create input tensor: %v", domain.ErrInference, err)
	}
	defer destroy(input)

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(p.metadata.OutputShape()...))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create output tensor: %v", domain.ErrInference, err)
	}
	defer destroy(output)

	if err := p.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInference, err)
	}

	raw := output.GetData()
	if len(raw) != len(p.metadata.Classes) {
		return nil, fmt.Errorf("%w: model returned %d values for %d classes", domain.ErrInference, len(raw), len(p.metadata.Classes))
	}
	return p.toPrediction(raw), nil
}

func (p *ONNXPredictor) toPrediction(raw []float32) *entity.Prediction {
	var probs []float32
	if p.metadata.Output == OutputProbabilities {
		probs = Renormalize(raw)
	} else {
		probs = Softmax(raw)
	}
	idx := Argmax(probs)
	return &entity.Prediction{
		Label:         p.metadata.Classes[idx],
		Index:         idx,
		Probabilities: probs,
	}
}

// Close はセッションとONNX Runtimeの環境を解放します。
func (p *ONNXPredictor) Close() error {
	if p.session != nil {
		if err := p.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy ONNX session: %w", err)
		}
		p.session = nil
	}

	envMu.Lock()
	defer envMu.Unlock()
	if ort.IsInitialized() {
		return ort.DestroyEnvironment()
	}
	return nil
}

type destroyer interface {
	Destroy() error
}

func destroy(d destroyer) {
	if err := d.Destroy(); err != nil {
		slog.Warn("failed to destroy tensor", "error", err)
	}
}

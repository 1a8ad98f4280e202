package onnx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"dino_classifier/internal/feature/classify/domain/entity"
)

// 出力テンソルの種類。
const (
	OutputLogits        = "logits"
	OutputProbabilities = "probabilities"
)

// Metadata はモデルファイルに付随する入出力の定義です。
type Metadata struct {
	Name       string     `yaml:"name"`
	Classes    []string   `yaml:"classes"`
	InputName  string     `yaml:"input_name"`
	OutputName string     `yaml:"output_name"`
	ImageSize  int        `yaml:"image_size"`
	Mean       [3]float32 `yaml:"mean"`
	Std        [3]float32 `yaml:"std"`
	Output     string     `yaml:"output"`
}

// DefaultMetadata はImageNetの統計値で学習した5クラスのResNetを想定したメタデータです。
func DefaultMetadata() Metadata {
	classes := make([]string, len(entity.DefaultLabels))
	copy(classes, entity.DefaultLabels)
	return Metadata{
		Name:       "dinosaur-resnet",
		Classes:    classes,
		InputName:  "input",
		OutputName: "output",
		ImageSize:  entity.ImageSize,
		Mean:       [3]float32{0.485, 0.456, 0.406},
		Std:        [3]float32{0.229, 0.224, 0.225},
		Output:     OutputLogits,
	}
}

// LoadMetadata はYAMLファイルを読み込み、未指定の項目をデフォルト値で補完して検証します。
func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read model metadata: %w", err)
	}
	return ParseMetadata(data)
}

// ParseMetadata はYAMLバイト列からMetadataを生成します。
func ParseMetadata(data []byte) (Metadata, error) {
	var raw Metadata
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse model metadata: %w", err)
	}

	md := DefaultMetadata()
	if raw.Name != "" {
		md.Name = raw.Name
	}
	if len(raw.Classes) > 0 {
		md.Classes = raw.Classes
	}
	if raw.InputName != "" {
		md.InputName = raw.InputName
	}
	if raw.OutputName != "" {
		md.OutputName = raw.OutputName
	}
	if raw.ImageSize != 0 {
		md.ImageSize = raw.ImageSize
	}
	if raw.Mean != ([3]float32{}) {
		md.Mean = raw.Mean
	}
	if raw.Std != ([3]float32{}) {
		md.Std = raw.Std
	}
	if raw.Output != "" {
		md.Output = raw.Output
	}

	if err := md.Validate(); err != nil {
		return Metadata{}, err
	}
	return md, nil
}

// Validate はメタデータがこのサービスの入力仕様と整合しているかを検証します。
func (m Metadata) Validate() error {
	if len(m.Classes) == 0 {
		return errors.New("model metadata has no classes")
	}
	seen := make(map[string]struct{}, len(m.Classes))
	for _, c := range m.Classes {
		if c == "" {
			return errors.New("model metadata has an empty class label")
		}
		if _, ok := seen[c]; ok {
			return fmt.Errorf("model metadata has duplicated class %q", c)
		}
		seen[c] = struct{}{}
	}
	if m.ImageSize != entity.ImageSize {
		return fmt.Errorf("model image size %d is not supported (want %d)", m.ImageSize, entity.ImageSize)
	}
	for i, s := range m.Std {
		if s <= 0 {
			return fmt.Errorf("model std[%d] must be positive, got %v", i, s)
		}
	}
	if m.Output != OutputLogits && m.Output != OutputProbabilities {
		return fmt.Errorf("unknown model output kind %q", m.Output)
	}
	return nil
}

// InputShape はNCHW形式の入力テンソル形状を返します。
func (m Metadata) InputShape() []int64 {
	return []int64{1, entity.Channels, int64(m.ImageSize), int64(m.ImageSize)}
}

// OutputShape は出力テンソル形状を返します。
func (m Metadata) OutputShape() []int64 {
	return []int64{1, int64(len(m.Classes))}
}

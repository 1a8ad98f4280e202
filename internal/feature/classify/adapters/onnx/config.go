// Package onnx はONNX Runtimeを使用した恐竜画像の推論クライアントを提供します。
package onnx

import "os"

const (
	defaultModelPath    = "models/dinosaur_resnet.onnx"
	defaultMetadataPath = "models/dinosaur_resnet.yaml"
)

// Config holds configuration for loading the ONNX model.
type Config struct {
	ModelPath     string // Path to the serialized .onnx model
	MetadataPath  string // Path to the YAML metadata describing classes and preprocessing
	SharedLibPath string // Path to the onnxruntime shared library; empty uses the library default
}

// LoadConfig loads model configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		ModelPath:     os.Getenv("MODEL_PATH"),
		MetadataPath:  os.Getenv("MODEL_METADATA_PATH"),
		SharedLibPath: os.Getenv("ONNXRUNTIME_LIB"),
	}
	if cfg.ModelPath == "" {
		cfg.ModelPath = defaultModelPath
	}
	if cfg.MetadataPath == "" {
		cfg.MetadataPath = defaultMetadataPath
	}
	return cfg
}

// Package dto defines data transfer objects for the classify HTTP API.
package dto

import "dino_classifier/internal/feature/classify/domain/entity"

// ClassificationResponse is the JSON body of POST /v1/classify.
// When Confident is false only Message is set.
type ClassificationResponse struct {
	Confident   bool   `json:"confident"`
	Prediction  string `json:"prediction,omitempty"`
	Confidence  string `json:"confidence,omitempty"`
	Description string `json:"description,omitempty"`
	Message     string `json:"message,omitempty"`
}

// NewClassificationResponse は分類結果をレスポンス形式に変換します。
func NewClassificationResponse(c *entity.Classification) ClassificationResponse {
	return ClassificationResponse{
		Confident:   c.Confident,
		Prediction:  c.Label,
		Confidence:  c.ConfidenceText,
		Description: c.Description,
		Message:     c.Message,
	}
}

// SpeciesItem represents one label the model can predict.
type SpeciesItem struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// ErrorResponse is the JSON body returned on failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Package domain defines domain-level errors for the classify feature.
package domain

import "errors"

var (
	// ErrEmptyImage is returned when the uploaded image has no bytes.
	ErrEmptyImage = errors.New("image data is empty")

	// ErrImageTooLarge is returned when the upload exceeds the configured size limit.
	ErrImageTooLarge = errors.New("image size exceeds maximum")

	// ErrDecode is returned when the uploaded bytes are not a decodable JPEG or PNG image.
	ErrDecode = errors.New("failed to decode image")

	// ErrPredictorUnavailable is returned when no model has been loaded.
	ErrPredictorUnavailable = errors.New("predictor is not loaded")

	// ErrInference is returned when the forward pass fails or yields a malformed distribution.
	ErrInference = errors.New("inference failed")
)

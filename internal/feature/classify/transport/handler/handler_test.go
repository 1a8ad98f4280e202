package handler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"dino_classifier/internal/feature/classify/domain"
	"dino_classifier/internal/feature/classify/domain/entity"
	"dino_classifier/internal/feature/classify/transport/handler"
	"dino_classifier/internal/feature/classify/transport/web"
	"dino_classifier/internal/platform/http/middleware"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockClassifyUsecase はClassifyUsecaseインターフェースのモック実装です。
type mockClassifyUsecase struct {
	ClassifyFunc    func(ctx context.Context, imageData []byte) (*entity.Classification, error)
	ListSpeciesFunc func(ctx context.Context) []entity.SpeciesInfo
	ClassifyCalls   int
}

func (m *mockClassifyUsecase) Classify(ctx context.Context, imageData []byte) (*entity.Classification, error) {
	m.ClassifyCalls++
	return m.ClassifyFunc(ctx, imageData)
}

func (m *mockClassifyUsecase) ListSpecies(ctx context.Context) []entity.SpeciesInfo {
	return m.ListSpeciesFunc(ctx)
}

// createMultipartRequest はテスト用のマルチパートリクエストを生成するヘルパー関数です。
func createMultipartRequest(t *testing.T, target, fieldName, fileName string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}

	if _, err := io.Copy(part, bytes.NewReader(content)); err != nil {
		t.Fatalf("failed to copy content: %v", err)
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, target, body)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return req
}

func confidentResult() *entity.Classification {
	return &entity.Classification{
		Preview:        entity.NewNormalizedImage(entity.ImageSize, entity.ImageSize),
		Confident:      true,
		Label:          "triceratops",
		ConfidenceText: "92.00%",
		Description:    entity.Describe("triceratops"),
	}
}

func notConfidentResult() *entity.Classification {
	return &entity.Classification{
		Preview: entity.NewNormalizedImage(entity.ImageSize, entity.ImageSize),
		Message: "The model is not detecting a dinosaur with sufficient confidence.",
	}
}

func TestClassifyHandler_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		setupRequest   func(t *testing.T) *http.Request
		mockFunc       func(ctx context.Context, imageData []byte) (*entity.Classification, error)
		expectedStatus int
		expectedBody   string
		expectedCalls  int
	}{
		{
			name: "success: confident prediction",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "/v1/classify", "image", "trike.png", []byte("png-bytes"))
			},
			mockFunc: func(ctx context.Context, imageData []byte) (*entity.Classification, error) {
				return confidentResult(), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: fmt.Sprintf(`{"confident":true,"prediction":"triceratops","confidence":"92.00%%","description":%q}`,
				entity.Describe("triceratops")),
			expectedCalls: 1,
		},
		{
			name: "success: not confident returns only the message",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "/v1/classify", "image", "cat.JPG", []byte("jpeg-bytes"))
			},
			mockFunc: func(ctx context.Context, imageData []byte) (*entity.Classification, error) {
				return notConfidentResult(), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"confident":false,"message":"The model is not detecting a dinosaur with sufficient confidence."}`,
			expectedCalls:  1,
		},
		{
			name: "error: no image field",
			setupRequest: func(t *testing.T) *http.Request {
				req, _ := http.NewRequest(http.MethodPost, "/v1/classify", io.NopCloser(bytes.NewReader(nil)))
				return req
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"an image file is required in the \"image\" field"}`,
		},
		{
			name: "error: unsupported extension",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "/v1/classify", "image", "dino.gif", []byte("GIF89a"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"unsupported file type: upload a .jpg, .jpeg or .png image"}`,
		},
		{
			name: "error: file cannot be decoded",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "/v1/classify", "image", "notes.jpg", []byte("hello"))
			},
			mockFunc: func(ctx context.Context, imageData []byte) (*entity.Classification, error) {
				return nil, fmt.Errorf("%w: image: unknown format", domain.ErrDecode)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"the uploaded file is not a valid JPEG or PNG image"}`,
			expectedCalls:  1,
		},
		{
			name: "error: image too large",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "/v1/classify", "image", "big.png", []byte("x"))
			},
			mockFunc: func(ctx context.Context, imageData []byte) (*entity.Classification, error) {
				return nil, domain.ErrImageTooLarge
			},
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedBody:   `{"error":"the uploaded image is too large"}`,
			expectedCalls:  1,
		},
		{
			name: "error: model not loaded",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "/v1/classify", "image", "trike.png", []byte("x"))
			},
			mockFunc: func(ctx context.Context, imageData []byte) (*entity.Classification, error) {
				return nil, domain.ErrPredictorUnavailable
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"error":"the classifier model is not available"}`,
			expectedCalls:  1,
		},
		{
			name: "error: inference failure",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "/v1/classify", "image", "trike.png", []byte("x"))
			},
			mockFunc: func(ctx context.Context, imageData []byte) (*entity.Classification, error) {
				return nil, fmt.Errorf("%w: %w", domain.ErrInference, errors.New("onnx run failed"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"classification failed"}`,
			expectedCalls:  1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockUC := &mockClassifyUsecase{ClassifyFunc: tt.mockFunc}
			h := handler.NewClassifyHandler(mockUC)

			router := gin.New()
			router.POST("/v1/classify", h.Classify)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, tt.setupRequest(t))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			assert.Equal(t, tt.expectedCalls, mockUC.ClassifyCalls)
		})
	}
}

// 上限を超えるファイルはユースケースに渡さずに413を返す
func TestClassifyHandler_Classify_UploadLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		content        []byte
		bodyLimit      int64
		unknownLength  bool
		expectedStatus int
		expectedCalls  int
	}{
		{
			name:           "file part over the limit",
			content:        bytes.Repeat([]byte{0xff}, 2048),
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:           "file part exactly at the limit",
			content:        bytes.Repeat([]byte{0xff}, 1024),
			expectedStatus: http.StatusOK,
			expectedCalls:  1,
		},
		{
			name:           "chunked body cut off by the body limit",
			content:        bytes.Repeat([]byte{0xff}, 64*1024),
			bodyLimit:      4096,
			unknownLength:  true,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockUC := &mockClassifyUsecase{
				ClassifyFunc: func(ctx context.Context, imageData []byte) (*entity.Classification, error) {
					return notConfidentResult(), nil
				},
			}
			h := handler.NewClassifyHandler(mockUC, handler.WithMaxUploadBytes(1024))

			router := gin.New()
			router.Use(middleware.BodyLimit(tt.bodyLimit))
			router.POST("/v1/classify", h.Classify)

			req := createMultipartRequest(t, "/v1/classify", "image", "huge.png", tt.content)
			if tt.unknownLength {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusRequestEntityTooLarge {
				assert.JSONEq(t, `{"error":"the uploaded image is too large"}`, w.Body.String())
			}
			assert.Equal(t, tt.expectedCalls, mockUC.ClassifyCalls)
		})
	}
}

func TestPageHandler_Submit_UploadLimit(t *testing.T) {
	t.Parallel()

	mockUC := &mockClassifyUsecase{}
	router := newPageRouter(handler.NewPageHandler(mockUC, handler.WithMaxUploadBytes(1024)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, createMultipartRequest(t, "/", "image", "huge.jpg", bytes.Repeat([]byte{0xff}, 4096)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "the uploaded image is too large")
	assert.Equal(t, 0, mockUC.ClassifyCalls)
}

func TestClassifyHandler_ClassifyPassesFileBytes(t *testing.T) {
	t.Parallel()

	var got []byte
	mockUC := &mockClassifyUsecase{
		ClassifyFunc: func(ctx context.Context, imageData []byte) (*entity.Classification, error) {
			got = imageData
			return notConfidentResult(), nil
		},
	}
	h := handler.NewClassifyHandler(mockUC)

	router := gin.New()
	router.POST("/v1/classify", h.Classify)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, createMultipartRequest(t, "/v1/classify", "image", "a.jpeg", []byte("raw image bytes")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte("raw image bytes"), got)
}

func TestClassifyHandler_ListSpecies(t *testing.T) {
	t.Parallel()

	mockUC := &mockClassifyUsecase{
		ListSpeciesFunc: func(ctx context.Context) []entity.SpeciesInfo {
			return []entity.SpeciesInfo{
				{Label: "triceratops", Description: "three horns"},
				{Label: "velociraptor", Description: entity.DescriptionFallback},
			}
		},
	}
	h := handler.NewClassifyHandler(mockUC)

	router := gin.New()
	router.GET("/v1/species", h.ListSpecies)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/species", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`[{"label":"triceratops","description":"three horns"},{"label":"velociraptor","description":"Description not available."}]`,
		w.Body.String())
}

func newPageRouter(h *handler.PageHandler) *gin.Engine {
	router := gin.New()
	router.SetHTMLTemplate(web.MustTemplates())
	router.GET("/", h.Index)
	router.POST("/", h.Submit)
	return router
}

func TestPageHandler_Index(t *testing.T) {
	t.Parallel()

	router := newPageRouter(handler.NewPageHandler(&mockClassifyUsecase{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "AI-Powered Dinosaur Classifier")
	assert.Contains(t, body, "<strong>Parasaurolophus</strong>")
	assert.Contains(t, body, web.UploadPrompt)
	assert.NotContains(t, body, "Prediction:")
}

func TestPageHandler_Submit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		setupRequest   func(t *testing.T) *http.Request
		mockFunc       func(ctx context.Context, imageData []byte) (*entity.Classification, error)
		expectedStatus int
		contains       []string
		notContains    []string
	}{
		{
			name: "success: confident prediction shows label, confidence and description",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "/", "image", "trike.png", []byte("png"))
			},
			mockFunc: func(ctx context.Context, imageData []byte) (*entity.Classification, error) {
				return confidentResult(), nil
			},
			expectedStatus: http.StatusOK,
			contains: []string{
				"Predicted Dinosaur</strong>: triceratops",
				"Confidence: 92.00%",
				"three distinctive facial horns",
				"data:image/png;base64,",
				web.PreviewCaption,
			},
			notContains: []string{web.UploadPrompt},
		},
		{
			name: "success: low confidence shows only the message",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "/", "image", "cat.jpg", []byte("jpg"))
			},
			mockFunc: func(ctx context.Context, imageData []byte) (*entity.Classification, error) {
				return notConfidentResult(), nil
			},
			expectedStatus: http.StatusOK,
			contains: []string{
				"The model is not detecting a dinosaur with sufficient confidence.",
				"data:image/png;base64,",
			},
			notContains: []string{"Predicted Dinosaur", "Confidence:"},
		},
		{
			name: "no file selected shows the prompt",
			setupRequest: func(t *testing.T) *http.Request {
				req, _ := http.NewRequest(http.MethodPost, "/", io.NopCloser(bytes.NewReader(nil)))
				return req
			},
			expectedStatus: http.StatusOK,
			contains:       []string{web.UploadPrompt},
			notContains:    []string{"Prediction:"},
		},
		{
			name: "error: undecodable file shows an error without a prediction",
			setupRequest: func(t *testing.T) *http.Request {
				return createMultipartRequest(t, "/", "image", "notes.png", []byte("text"))
			},
			mockFunc: func(ctx context.Context, imageData []byte) (*entity.Classification, error) {
				return nil, domain.ErrDecode
			},
			expectedStatus: http.StatusBadRequest,
			contains:       []string{"the uploaded file is not a valid JPEG or PNG image"},
			notContains:    []string{"Prediction:", "data:image/png"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newPageRouter(handler.NewPageHandler(&mockClassifyUsecase{ClassifyFunc: tt.mockFunc}))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, tt.setupRequest(t))

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := w.Body.String()
			for _, s := range tt.contains {
				assert.Contains(t, body, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, body, s)
			}
		})
	}
}

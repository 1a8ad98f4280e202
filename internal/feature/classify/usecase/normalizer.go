package usecase

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // JPEGデコーダの登録
	_ "image/png"  // PNGデコーダの登録

	"github.com/nfnt/resize"

	"dino_classifier/internal/feature/classify/domain"
	"dino_classifier/internal/feature/classify/domain/entity"
)

// MaxImagePixels はデコードを許可する画素数の上限（5000万画素）です。
// 圧縮率の高いPNGは小さなファイルでも巨大な画像を宣言できるため、ヘッダの時点で弾きます。
const MaxImagePixels = 50_000_000

// ImageNormalizer はアップロードされた画像バイト列をモデル入力用のRGB画像に変換します。
type ImageNormalizer struct {
	size      int
	interp    resize.InterpolationFunction
	maxPixels int
}

// NewImageNormalizer は224x224・バイキュービック補間のImageNormalizerを生成します。
// maxPixelsが0以下の場合は MaxImagePixels を使用します。
func NewImageNormalizer(maxPixels int) *ImageNormalizer {
	if maxPixels <= 0 {
		maxPixels = MaxImagePixels
	}
	return &ImageNormalizer{size: entity.ImageSize, interp: resize.Bicubic, maxPixels: maxPixels}
}

// Normalize は画像をデコードし、アルファを破棄してRGBに変換した後、固定サイズへリサイズします。
// JPEG/PNGとしてデコードできない場合は domain.ErrDecode を、
// ヘッダの画素数が上限を超える場合はデコード前に domain.ErrImageTooLarge を返します。
func (n *ImageNormalizer) Normalize(data []byte) (*entity.NormalizedImage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(n.maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d pixels (limit %d)", domain.ErrImageTooLarge, cfg.Width, cfg.Height, n.maxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", domain.ErrDecode)
	}

	// リサイズ前にアルファを落とす（透明部分が黒に潰れないよう非乗算値を使う）
	opaque := dropAlpha(src)
	resized := resize.Resize(uint(n.size), uint(n.size), opaque, n.interp)

	return toNormalized(resized, n.size), nil
}

// dropAlpha はあらゆるカラーモデルの画像を不透明なRGBA画像に変換します。
func dropAlpha(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

func toNormalized(img image.Image, size int) *entity.NormalizedImage {
	out := entity.NewNormalizedImage(size, size)
	b := img.Bounds()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			out.SetRGB(x, y, c.R, c.G, c.B)
		}
	}
	return out
}

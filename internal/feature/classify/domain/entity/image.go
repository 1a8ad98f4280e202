package entity

import (
	"image"
	"image/color"
)

const (
	// ImageSize はモデル入力画像の一辺のピクセル数です。
	ImageSize = 224
	// Channels はモデル入力画像のチャンネル数（RGB）です。
	Channels = 3
)

// NormalizedImage はモデルに渡す直前の固定サイズRGB画像です。
// Pix は行優先で1ピクセルあたり R, G, B の3バイトを持ちます。
type NormalizedImage struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewNormalizedImage は指定サイズのゼロ初期化されたNormalizedImageを生成します。
func NewNormalizedImage(width, height int) *NormalizedImage {
	return &NormalizedImage{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// RGBAt は (x, y) のRGB値を返します。
func (n *NormalizedImage) RGBAt(x, y int) (r, g, b uint8) {
	i := (y*n.Width + x) * Channels
	return n.Pix[i], n.Pix[i+1], n.Pix[i+2]
}

// SetRGB は (x, y) にRGB値を設定します。
func (n *NormalizedImage) SetRGB(x, y int, r, g, b uint8) {
	i := (y*n.Width + x) * Channels
	n.Pix[i], n.Pix[i+1], n.Pix[i+2] = r, g, b
}

// ToImage はプレビュー表示用に不透明な image.Image へ変換します。
func (n *NormalizedImage) ToImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, n.Width, n.Height))
	for y := 0; y < n.Height; y++ {
		for x := 0; x < n.Width; x++ {
			r, g, b := n.RGBAt(x, y)
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	return img
}

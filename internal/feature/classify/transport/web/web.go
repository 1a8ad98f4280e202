// Package web holds the embedded HTML page of the classifier and its rendering helpers.
package web

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"image"
	"image/png"
	"io/fs"
	"net/http"

	"github.com/gomarkdown/markdown"
)

//go:embed templates/*.html static/*.css
var content embed.FS

const (
	// PageTemplate is the name of the single page template.
	PageTemplate = "index.html"
	// Title is shown in the page header.
	Title = "🦖 AI-Powered Dinosaur Classifier"
	// UploadPrompt is shown while no image has been uploaded.
	UploadPrompt = "Please upload an image to start the classification."
	// PreviewCaption labels the normalized preview image.
	PreviewCaption = "Uploaded Image (224x224)"
)

const intro = "Explore the power of AI as it classifies dinosaurs like **Parasaurolophus**, **Spinosaurus**, " +
	"**Stegosaurus**, **Triceratops**, and **T. rex**. Our tool leverages advanced deep learning to identify " +
	"these prehistoric giants with impressive accuracy."

// PageData is the view model of the page.
type PageData struct {
	Title          string
	Intro          template.HTML
	Prompt         string
	Preview        template.URL
	PreviewCaption string
	Result         *ResultView
	Error          string
}

// ResultView is the prediction block. Only Message is set when the model is not confident.
type ResultView struct {
	Confident   bool
	Label       string
	Confidence  string
	Description template.HTML
	Message     string
}

// NewPageData returns page data with the static header filled in.
func NewPageData() PageData {
	return PageData{
		Title:          Title,
		Intro:          Markdown(intro),
		PreviewCaption: PreviewCaption,
	}
}

// Templates parses the embedded page template.
func Templates() (*template.Template, error) {
	t, err := template.ParseFS(content, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return t, nil
}

// MustTemplates is like Templates but panics on error.
func MustTemplates() *template.Template {
	return template.Must(Templates())
}

// StaticFS serves the embedded stylesheet.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Markdown renders trusted, server-side markdown to HTML.
func Markdown(s string) template.HTML {
	return template.HTML(markdown.ToHTML([]byte(s), nil, nil))
}

// PreviewURL encodes img as a PNG data URI.
func PreviewURL(img image.Image) (template.URL, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode preview: %w", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

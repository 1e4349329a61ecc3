package domain

import (
	"context"
	"errors"
	"fmt"
)

// Embedder is the shared vectorization contract between layers.
// One model maps both text and images into the same vector space.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)
}

// HealthChecker verifies model server availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Face is a single detection returned by a face detector.
type Face struct {
	Score float64
	// BBox is [x1, y1, x2, y2] in source pixel coordinates.
	BBox [4]float64
}

// FaceDetector finds human faces in an encoded image.
type FaceDetector interface {
	DetectFaces(ctx context.Context, image []byte) ([]Face, error)
}

// InputKind tags the variant held by an Input.
type InputKind int

const (
	// InputText is a free-text query.
	InputText InputKind = iota + 1
	// InputImage is an encoded image.
	InputImage
)

func (k InputKind) String() string {
	switch k {
	case InputText:
		return "text"
	case InputImage:
		return "image"
	default:
		return "unknown"
	}
}

// Input is either a text or an image to embed.
type Input struct {
	kind  InputKind
	text  string
	image []byte
}

// TextInput wraps free text.
func TextInput(text string) Input { return Input{kind: InputText, text: text} }

// ImageInput wraps encoded image bytes.
func ImageInput(image []byte) Input { return Input{kind: InputImage, image: image} }

// Kind returns the variant tag.
func (in Input) Kind() InputKind { return in.kind }

// Text returns the text of a text input.
func (in Input) Text() string { return in.text }

// Image returns the bytes of an image input.
func (in Input) Image() []byte { return in.image }

// IsEmpty reports whether the input carries nothing to embed.
func (in Input) IsEmpty() bool {
	switch in.kind {
	case InputText:
		return in.text == ""
	case InputImage:
		return len(in.image) == 0
	default:
		return true
	}
}

// EmbedWith dispatches the input onto the matching Embedder method.
func (in Input) EmbedWith(ctx context.Context, e Embedder) ([]float32, error) {
	switch in.kind {
	case InputText:
		vec, err := e.EmbedText(ctx, in.text)
		if err != nil {
			return nil, fmt.Errorf("embed text: %w", err)
		}
		return vec, nil
	case InputImage:
		vec, err := e.EmbedImage(ctx, in.image)
		if err != nil {
			return nil, fmt.Errorf("embed image: %w", err)
		}
		return vec, nil
	default:
		return nil, errors.New("embed: empty input")
	}
}

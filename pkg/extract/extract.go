// Package extract turns a downloaded menu document into ordered text lines.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/korjavin/mealwatch/pkg/logger"
)

// ErrUnsupported is returned for documents no extractor can read
var ErrUnsupported = errors.New("unsupported document type")

// Extractor converts raw document bytes into text lines in document order
type Extractor interface {
	Extract(ctx context.Context, doc []byte) ([]string, error)
}

// Func adapts a function to the Extractor interface
type Func func(ctx context.Context, doc []byte) ([]string, error)

// Extract calls f
func (f Func) Extract(ctx context.Context, doc []byte) ([]string, error) {
	return f(ctx, doc)
}

// ImageReader reads text out of a page image
type ImageReader interface {
	ExtractLines(ctx context.Context, image []byte, mimeType string) ([]string, error)
}

// Dispatcher picks an extractor by sniffing the document type
type Dispatcher struct {
	images ImageReader
	logger *logger.Logger
}

// New creates a dispatcher. images may be nil, in which case image documents
// are rejected.
func New(images ImageReader) *Dispatcher {
	return &Dispatcher{
		images: images,
		logger: logger.New("extract"),
	}
}

// Extract reads the document as PDF, image or plain text
func (d *Dispatcher) Extract(ctx context.Context, doc []byte) ([]string, error) {
	mt := mimetype.Detect(doc)
	d.logger.Debug("Detected document type %s (%d bytes)", mt.String(), len(doc))

	var (
		lines []string
		err   error
	)
	switch {
	case mt.Is("application/pdf"):
		lines, err = PDFLines(doc)
	case strings.HasPrefix(mt.String(), "image/"):
		if d.images == nil {
			return nil, fmt.Errorf("%w: %s needs an image reader", ErrUnsupported, mt.String())
		}
		lines, err = d.images.ExtractLines(ctx, doc, mt.String())
	case mt.Is("text/plain"):
		lines = SplitLines(string(doc))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	d.logger.Info("Extracted %d lines", len(lines))
	return lines, nil
}

// SplitLines splits text into trimmed, non-empty lines
func SplitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Package extract converts uploaded documents into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"finknow/internal/util"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNoExtractableText = errors.New("no extractable text found in document")
)

// Text extracts plain text from raw document bytes. Only PDF input is
// supported; anything else fails with ErrUnsupportedFormat before any
// side effects occur.
func Text(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".pdf" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}

	text := util.SanitizeText(buf.String())
	if text == "" {
		return "", ErrNoExtractableText
	}
	return text, nil
}

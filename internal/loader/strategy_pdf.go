package loader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/muratoffalex/linkreader/internal/logger"
)

var (
	pdfMagic = []byte("%PDF-")

	ErrNoPDFText = errors.New("PDF has no extractable text")
)

// PDFStrategy extracts plain text from PDF documents. Anything that is not a
// PDF is rejected after peeking at the first bytes, before the body is read.
type PDFStrategy struct {
	BaseStrategy
	client      HTTPClient
	maxBodySize int64
}

func NewPDFStrategy(l logger.Logger, client HTTPClient, maxBodySize int64) *PDFStrategy {
	return &PDFStrategy{
		BaseStrategy: NewBaseStrategy(StrategyNamePDF, "", l),
		client:       client,
		maxBodySize:  maxBodySize,
	}
}

func (s *PDFStrategy) Load(ctx context.Context, url string) (string, error) {
	resp, err := get(ctx, s.client, url, map[string]string{
		"Accept": "application/pdf,*/*;q=0.8",
	})
	if err != nil {
		return "", s.fail(url, err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	head, _ := reader.Peek(len(pdfMagic))
	if !isPDFContentType(resp.Header.Get("Content-Type")) && !bytes.Equal(head, pdfMagic) {
		return "", s.inapplicable(url)
	}

	body, err := readBody(reader, s.maxBodySize)
	if err != nil {
		return "", s.fail(url, err)
	}

	text, err := extractPDFText(body)
	if err != nil {
		return "", s.fail(url, err)
	}

	s.logger.WithFields(logger.Fields{
		"url":   url,
		"bytes": len(body),
	}).Debug("PDF text extracted")
	return text, nil
}

func isPDFContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/pdf"
}

// extractPDFText converts malformed documents that make the parser panic
// into errors.
func extractPDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	text = strings.TrimSpace(string(raw))
	if text == "" {
		return "", ErrNoPDFText
	}
	return text, nil
}

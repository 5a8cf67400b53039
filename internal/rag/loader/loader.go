package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/domain/commonModels"
	"github.com/akolanti/doctutor/pkg/logger_i"
	"github.com/dslipak/pdf"
	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/lu4p/cat"
)

type DocType string

const (
	PDF  DocType = "PDF"
	DOCX DocType = "DOCX"
	ERR  DocType = "ERROR"
)

var pdfMagic = []byte("%PDF-")

// Loader turns a stored upload into plain text. Every call re-reads and
// re-parses the file.
type Loader interface {
	Load(ctx context.Context, name string) (string, error)
}

type documentLoader struct {
	storage     Storage
	pageTimeout time.Duration
	logger      *logger_i.Logger
}

func New(storage Storage) Loader {
	return &documentLoader{
		storage:     storage,
		pageTimeout: config.PageExtractTimeout,
		logger:      logger_i.NewLogger("Document Loader"),
	}
}

func (l *documentLoader) Load(ctx context.Context, name string) (string, error) {
	log := l.logger.FromContext(ctx).With("document", name)

	raw, err := l.storage.Resolve(ctx, name)
	if err != nil {
		log.Error("could not resolve document", "error", err)
		return "", fmt.Errorf("%w: %w", commonModels.ErrDocumentUnreadable, err)
	}

	docType := getDocType(name, raw)
	log.Debug("extracting text", "type", docType, "bytes", len(raw))

	var text string
	switch docType {
	case PDF:
		text, err = l.extractPDF(ctx, raw)
	case DOCX:
		text, err = extractdocxTxtRtf(raw)
	default:
		err = fmt.Errorf("unsupported document type for %s", name)
	}
	if err != nil {
		log.Error("text extraction failed", "error", err)
		return "", fmt.Errorf("%w: %w", commonModels.ErrDocumentUnreadable, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s has no extractable text", commonModels.ErrDocumentUnreadable, name)
	}
	return text, nil
}

func getDocType(name string, raw []byte) DocType {
	if bytes.HasPrefix(raw, pdfMagic) {
		return PDF
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return PDF
	case ".docx", ".odt", ".rtf", ".txt":
		return DOCX
	default:
		return ERR
	}
}

// extractPDF walks pages with dslipak/pdf and falls back to ledongthuc/pdf's
// whole-document reader when nothing comes out.
func (l *documentLoader) extractPDF(ctx context.Context, raw []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	f, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		l.logger.Debug("dslipak/pdf could not open document, trying fallback", "error", err)
		return extractPDFFallback(raw)
	}

	var b strings.Builder
	numPages := f.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := l.protectExtract(ctx, page)
		if err != nil {
			// one bad page should not sink the document
			l.logger.Warn("error parsing page content", "page", i, "error", err)
			continue
		}
		b.WriteString(content)
		if i < numPages {
			b.WriteByte('\n')
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		return extractPDFFallback(raw)
	}
	return b.String(), nil
}

func extractPDFFallback(raw []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	r, err := ledongthuc.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}

func extractdocxTxtRtf(raw []byte) (string, error) {
	text, err := cat.FromBytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to extract document: %w", err)
	}
	return text, nil
}

func (l *documentLoader) protectExtract(ctx context.Context, page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("page parser panic: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	timer := time.NewTimer(l.pageTimeout)
	defer timer.Stop()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-timer.C:
		return "", errors.New("page extraction timeout")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Package textextract turns uploaded document bytes into plain text.
// PDFs go through the poppler text layer, images through tesseract OCR,
// and anything else through a best-effort UTF-8 decode.
package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// Method identifiers recorded on extraction results.
const (
	MethodPDFText = "pdf-text"
	MethodOCR     = "image-ocr"
	MethodPlain   = "plain-text"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
}

type Result struct {
	Text     string
	Pages    int
	Method   string
	Duration time.Duration
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy based on the declared mime type.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (Result, error) {
	start := time.Now()
	mt := normalizeMime(mimeType)
	e.logger.Debug("extract.start", "mime_type", mt, "bytes", len(data))

	var res Result
	var err error
	switch {
	case mt == "application/pdf":
		res, err = e.extractPDF(ctx, data)
	case strings.HasPrefix(mt, "image/"):
		res, err = e.extractImage(ctx, data)
	default:
		res = Result{Text: decodeUTF8(data), Method: MethodPlain}
	}
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	e.logger.Info("extract.ok",
		"method", res.Method,
		"pages", res.Pages,
		"text_len", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// extractPDF concatenates the text layer of all pages, in page order.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (Result, error) {
	path, cleanup, err := writeTemp(data, "*.pdf")
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return Result{}, fmt.Errorf("pdftotext: %w (%s)", err, truncate(string(errb), 512))
	}
	text := string(out)
	// A form-feed \f is used as page separator by default
	pages := 1 + strings.Count(text, "\f")
	return Result{Text: text, Pages: pages, Method: MethodPDFText}, nil
}

func (e *Extractor) extractImage(ctx context.Context, data []byte) (Result, error) {
	path, cleanup, err := writeTemp(data, "*.png")
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	// tesseract <path> stdout -l eng
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return Result{}, fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return Result{Text: string(out), Pages: 1, Method: MethodOCR}, nil
}

func writeTemp(data []byte, pattern string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "mc-doc-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }
	path := filepath.Join(dir, strings.ReplaceAll(pattern, "*", "upload"))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// decodeUTF8 drops invalid byte sequences instead of failing.
func decodeUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r != utf8.RuneError || size > 1 {
			b.WriteRune(r)
		}
		data = data[size:]
	}
	return b.String()
}

func normalizeMime(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// Package extract wraps document text extraction and LLM field extraction
// into a single adapter that yields a structured billing record, or a
// well-defined failure from the extraction error taxonomy.
package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/yuki-ame/MediClaim.AI/internal/common"
	"github.com/yuki-ame/MediClaim.AI/internal/entity"
	"github.com/yuki-ame/MediClaim.AI/internal/llm"
	"github.com/yuki-ame/MediClaim.AI/internal/textextract"
)

// TextExtractor is the document-to-text capability.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (textextract.Result, error)
}

// Result carries both the raw model output (returned verbatim on the wire)
// and the parsed billing record.
type Result struct {
	RawText string
	Record  *entity.BillingRecord
}

type Adapter struct {
	texts  TextExtractor
	fields llm.FieldExtractor
	logger *slog.Logger
}

func NewAdapter(texts TextExtractor, fields llm.FieldExtractor, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{texts: texts, fields: fields, logger: logger}
}

// Extract runs text extraction, field extraction, output sanitation and
// parsing for one uploaded document.
func (a *Adapter) Extract(ctx context.Context, data []byte, mimeType, filename string) (Result, error) {
	res, err := a.texts.Extract(ctx, data, mimeType)
	if err != nil {
		a.logger.Error("extract.text_failed", "filename", filename, "mime_type", mimeType, "error", err)
		return Result{}, common.WrapError(err, "text extraction")
	}
	if strings.TrimSpace(res.Text) == "" {
		a.logger.Warn("extract.no_text", "filename", filename, "mime_type", mimeType, "method", res.Method)
		return Result{}, common.ErrNoReadableText
	}

	raw, err := a.fields.ExtractFields(ctx, res.Text)
	if err != nil {
		a.logger.Error("extract.fields_failed", "filename", filename, "error", err)
		return Result{}, common.WrapError(err, "field extraction")
	}

	if llm.LooksUseless(raw) {
		a.logger.Warn("extract.no_useful_data", "filename", filename, "raw_len", len(raw))
		return Result{RawText: raw}, common.ErrNoUsefulData
	}

	record, err := a.parse(raw)
	if err != nil {
		// raw text kept for diagnostics, logged but never returned to callers
		a.logger.Error("extract.malformed", "filename", filename, "error", err, "raw", truncateRaw(raw))
		return Result{RawText: raw}, common.NewAppError("MALFORMED_EXTRACTION", common.MsgMalformedExtraction,
			common.WrapError(common.ErrMalformedExtraction, err.Error()))
	}

	a.logger.Info("extract.ok",
		"filename", filename,
		"method", res.Method,
		"pages", res.Pages,
		"line_items", len(record.LineItems),
	)
	return Result{RawText: raw, Record: record}, nil
}

func (a *Adapter) parse(raw string) (*entity.BillingRecord, error) {
	candidate, ok := llm.SanitizeModelJSON(raw)
	if !ok {
		return nil, common.WrapError(common.ErrMalformedExtraction, "no JSON object found in model output")
	}
	payload := []byte(candidate)
	if err := llm.ValidateJSONAgainstSchema(llm.BuildBillingJSONSchema(), payload); err != nil {
		return nil, err
	}
	var record entity.BillingRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func truncateRaw(s string) string {
	if len(s) <= 2048 {
		return s
	}
	return s[:2048] + "...(truncated)"
}

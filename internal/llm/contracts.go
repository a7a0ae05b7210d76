package llm

import "context"

// FieldExtractor turns free document text into the raw model output for a
// structured billing record. The output is free text that may be wrapped
// in markdown fences or preceded by commentary; callers sanitize it before
// parsing.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, docText string) (string, error)
}

// TextGenerator produces prose for a prompt. Used for appeal letters and
// claim forms; never for the approve/deny decision itself.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

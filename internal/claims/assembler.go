package claims

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/yuki-ame/MediClaim.AI/internal/common"
	"github.com/yuki-ame/MediClaim.AI/internal/entity"
	"github.com/yuki-ame/MediClaim.AI/internal/llm"
)

// Assembler renders a billing record into a single claim form text blob.
// It trusts its input to be fully approved; the all-approved gate is an
// orchestration concern of the caller.
type Assembler struct {
	generator llm.TextGenerator
	logger    *slog.Logger
}

func NewAssembler(generator llm.TextGenerator, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{generator: generator, logger: logger}
}

// Assemble makes one generation call over the full record and returns the
// generated text verbatim. No structure is imposed on the output.
func (a *Assembler) Assemble(ctx context.Context, record entity.BillingRecord) (string, error) {
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", common.WrapError(err, "encode record")
	}

	text, err := a.generator.GenerateText(ctx, llm.BuildClaimFormPrompt(string(payload)))
	if err != nil {
		a.logger.Error("assemble.failed", "error", err)
		return "", common.WrapError(err, "claim form generation")
	}

	a.logger.Info("assemble.ok", "text_len", len(text))
	return text, nil
}

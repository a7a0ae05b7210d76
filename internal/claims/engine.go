// Package claims holds the adjudication engine and the claim form
// assembler. Classification of a line item is a pure function of the item
// and its coverage policy; only the prose of a denial explanation comes
// from the text generator, never the approve/deny decision itself.
package claims

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yuki-ame/MediClaim.AI/internal/common"
	"github.com/yuki-ame/MediClaim.AI/internal/entity"
	"github.com/yuki-ame/MediClaim.AI/internal/llm"
	"github.com/yuki-ame/MediClaim.AI/internal/rules"
)

type Engine struct {
	rules     *rules.Table
	generator llm.TextGenerator
	logger    *slog.Logger
}

func NewEngine(table *rules.Table, generator llm.TextGenerator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{rules: table, generator: generator, logger: logger}
}

// Validate adjudicates every line item of the record, in input order.
// Malformed items (empty code, non-numeric amount) are dropped without
// failing the batch; an empty batch escalates to a batch-level error.
func (e *Engine) Validate(ctx context.Context, record entity.BillingRecord) ([]entity.AdjudicationResult, error) {
	items := record.ResolveLineItems()
	if len(items) == 0 {
		return nil, common.ErrNoValidServices
	}

	patient := record.PatientNameOrUnknown()
	date := record.DateOfServiceOrUnknown()

	results := make([]entity.AdjudicationResult, 0, len(items))
	for _, item := range items {
		amount, ok := item.AmountValue()
		if !ok {
			e.logger.Debug("validate.item_dropped", "service_code", item.ServiceCode, "reason", "amount")
			continue
		}
		code := strings.TrimSpace(item.ServiceCode)
		if code == "" {
			e.logger.Debug("validate.item_dropped", "reason", "code")
			continue
		}

		res, err := e.adjudicate(ctx, code, amount, patient, date)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	if len(results) == 0 {
		return nil, common.ErrNoValidResults
	}
	return results, nil
}

func (e *Engine) adjudicate(ctx context.Context, code string, amount float64, patient, date string) (entity.AdjudicationResult, error) {
	policy, known := e.rules.Lookup(code)

	switch {
	case !known || !policy.Covered:
		letter, err := e.generator.GenerateText(ctx, llm.BuildUncoveredAppealPrompt(code, patient, date, amount))
		if err != nil {
			return entity.AdjudicationResult{}, common.WrapError(err, "appeal letter generation")
		}
		e.logger.Info("validate.denied", "service_code", code, "reason", "uncovered", "amount", amount)
		return entity.AdjudicationResult{
			ServiceCode:  code,
			Status:       entity.StatusDenied,
			AppealLetter: letter,
		}, nil

	case amount > policy.MaxAmount:
		letter, err := e.generator.GenerateText(ctx, llm.BuildOverbillingAppealPrompt(code, patient, date, amount, policy.MaxAmount))
		if err != nil {
			return entity.AdjudicationResult{}, common.WrapError(err, "appeal letter generation")
		}
		e.logger.Info("validate.denied", "service_code", code, "reason", "overbilling",
			"amount", amount, "max_amount", policy.MaxAmount)
		return entity.AdjudicationResult{
			ServiceCode:  code,
			Status:       entity.StatusDenied,
			AppealLetter: letter,
		}, nil

	default:
		// amount == MaxAmount is approved, boundary is inclusive
		e.logger.Info("validate.approved", "service_code", code, "amount", amount)
		return entity.AdjudicationResult{
			ServiceCode: code,
			Status:      entity.StatusApproved,
			ClaimForm: &entity.ClaimFormPayload{
				PatientName: patient,
				Date:        date,
				ServiceCode: code,
				Amount:      amount,
			},
		}, nil
	}
}

package claims

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/yuki-ame/MediClaim.AI/internal/entity"
)

func TestAssemble(t *testing.T) {
	gen := &stubGenerator{}
	asm := NewAssembler(gen, nil)

	record := entity.BillingRecord{
		PatientName:   "John Doe",
		DateOfService: "2025-01-15",
		ProviderName:  "City Clinic",
		LineItems: []entity.BillingLineItem{
			{ServiceCode: "A1", Amount: json.RawMessage(`80`)},
		},
	}

	text, err := asm.Assemble(context.Background(), record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text == "" {
		t.Fatal("empty claim form text")
	}
	if gen.calls != 1 {
		t.Fatalf("generator calls = %d, want exactly 1", gen.calls)
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "John Doe") || !strings.Contains(prompt, "A1") {
		t.Errorf("prompt should embed the record payload, got %q", prompt)
	}
}

func TestAssembleGeneratorFailure(t *testing.T) {
	genErr := errors.New("model unavailable")
	asm := NewAssembler(&stubGenerator{err: genErr}, nil)

	_, err := asm.Assemble(context.Background(), entity.BillingRecord{})
	if !errors.Is(err, genErr) {
		t.Fatalf("err = %v, want wrapped generator error", err)
	}
}

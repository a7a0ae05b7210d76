// Package rules loads the static coverage rule table consulted during
// adjudication. The table is read once at startup and never mutated, so
// lookups are safe from any goroutine.
package rules

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yuki-ame/MediClaim.AI/internal/entity"
)

// Table maps service codes to coverage policies.
type Table struct {
	policies map[string]entity.CoveragePolicy
}

// New builds a table from an in-memory policy map. Intended for tests and
// synthetic tables; production tables come from Load.
func New(policies map[string]entity.CoveragePolicy) *Table {
	m := make(map[string]entity.CoveragePolicy, len(policies))
	for code, p := range policies {
		m[code] = p
	}
	return &Table{policies: m}
}

// Load reads a JSON rule file of the shape
// {"CODE": {"covered": bool, "max_amount": number}, ...}.
func Load(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file %q: %w", path, err)
	}
	var policies map[string]entity.CoveragePolicy
	if err := json.Unmarshal(b, &policies); err != nil {
		return nil, fmt.Errorf("parse rules file %q: %w", path, err)
	}
	for code, p := range policies {
		if p.MaxAmount < 0 {
			return nil, fmt.Errorf("rules file %q: code %q has negative max_amount", path, code)
		}
	}
	return New(policies), nil
}

// Lookup returns the policy for code.
func (t *Table) Lookup(code string) (entity.CoveragePolicy, bool) {
	p, ok := t.policies[code]
	return p, ok
}

// Len returns the number of policies in the table.
func (t *Table) Len() int {
	return len(t.policies)
}

// internal/service/promotion/infrastructure/rule/cel_engine_test.go
package rule

import (
	"testing"

	"primeshop/internal/service/promotion/domain"
)

func TestEvaluate(t *testing.T) {
	engine, err := NewCELRuleEngine()
	if err != nil {
		t.Fatal(err)
	}

	fact := domain.Fact{
		OrderValue:  500000,
		ProductIDs:  []int64{1, 2},
		CategoryIDs: []int64{3},
	}

	cases := []struct {
		name string
		rule string
		want bool
	}{
		{"order value threshold", `orderValue >= 100000.0`, true},
		{"order value below threshold", `orderValue >= 1000000.0`, false},
		{"product in list", `productIds.exists(p, p in [2, 9])`, true},
		{"product not in list", `productIds.exists(p, p in [8, 9])`, false},
		{"category match", `categoryIds.exists(c, c == 3)`, true},
		{"combined", `orderValue >= 100000.0 && categoryIds.exists(c, c == 3)`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.Evaluate(tc.rule, fact)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tc.rule, got, tc.want)
			}
		})
	}
}

func TestEvaluateInvalidRule(t *testing.T) {
	engine, err := NewCELRuleEngine()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := engine.Evaluate(`orderValue >>> 5`, domain.Fact{}); err == nil {
		t.Error("expected compile error for malformed rule")
	}
	if _, err := engine.Evaluate(`orderValue + 1.0`, domain.Fact{}); err == nil {
		t.Error("expected error for non-bool rule")
	}
}

func TestProgramCache(t *testing.T) {
	engine, err := NewCELRuleEngine()
	if err != nil {
		t.Fatal(err)
	}

	const rule = `orderValue >= 100000.0`
	if _, err := engine.Evaluate(rule, domain.Fact{OrderValue: 200000}); err != nil {
		t.Fatal(err)
	}
	if _, hit := engine.cache[rule]; !hit {
		t.Error("compiled program should be cached")
	}
}

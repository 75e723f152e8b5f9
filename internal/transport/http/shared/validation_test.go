package shared

import "testing"

func TestValidatorAmount(t *testing.T) {
	v := NewValidator()
	amount, ok := v.Amount("paidAmount", "1250.50")
	if !ok {
		t.Fatalf("expected valid amount, issues: %+v", v.Issues())
	}
	if amount.StringFixed(2) != "1250.50" {
		t.Fatalf("expected 1250.50, got %s", amount.StringFixed(2))
	}

	v = NewValidator()
	if _, ok := v.Amount("paidAmount", "-5"); ok {
		t.Fatal("expected negative amount to be rejected")
	}
	if !v.HasIssues() {
		t.Fatal("expected an issue for negative amount")
	}

	v = NewValidator()
	if _, ok := v.Amount("paidAmount", "abc"); ok {
		t.Fatal("expected malformed amount to be rejected")
	}
}

func TestValidatorDateOrder(t *testing.T) {
	v := NewValidator()
	start, ok := v.Date("weekStart", "2025-06-02")
	if !ok {
		t.Fatal("expected weekStart to parse")
	}
	end, ok := v.Date("weekEnd", "2025-06-08")
	if !ok {
		t.Fatal("expected weekEnd to parse")
	}
	v.DateOrder("weekStart", start, "weekEnd", end)
	if v.HasIssues() {
		t.Fatalf("expected no issues, got %+v", v.Issues())
	}

	v.DateOrder("weekStart", end, "weekEnd", start)
	if !v.HasIssues() {
		t.Fatal("expected issues for reversed range")
	}
}

func TestValidatorIssuesSorted(t *testing.T) {
	v := NewValidator()
	v.Add("b", "second")
	v.Add("a", "first")
	issues := v.Issues()
	if len(issues) != 2 || issues[0].Field != "a" {
		t.Fatalf("expected sorted issues, got %+v", issues)
	}
}

package shared

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestValidatorRequired(t *testing.T) {
	v := NewValidator()
	v.Required("email", "  ", "email is required")
	v.Required("name", "ok", "name is required")
	if !v.HasIssues() {
		t.Fatal("blank value should raise an issue")
	}
	issues := v.Issues()
	if len(issues) != 1 || issues[0].Field != "email" {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestValidatorEnum(t *testing.T) {
	v := NewValidator()
	v.Enum("type", "Income", []string{"income", "expense"}, "unknown type")
	if v.HasIssues() {
		t.Fatal("case-insensitive match should pass")
	}
	v.Enum("type", "transfer", []string{"income", "expense"}, "unknown type")
	if !v.HasIssues() {
		t.Fatal("unlisted value should raise an issue")
	}
	v2 := NewValidator()
	v2.Enum("type", "", []string{"income"}, "unknown type")
	if v2.HasIssues() {
		t.Fatal("empty value is left to Required, not Enum")
	}
}

func TestValidatorAmount(t *testing.T) {
	v := NewValidator()
	got := v.Amount("amount", " 1250.50 ")
	if v.HasIssues() {
		t.Fatalf("valid amount rejected: %+v", v.Issues())
	}
	if got.StringFixed(2) != "1250.50" {
		t.Fatalf("expected 1250.50, got %s", got.StringFixed(2))
	}

	v.Amount("tax", "abc")
	v.Amount("bonus", "-5")
	issues := v.Issues()
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %+v", issues)
	}
	// Issues sort by field name.
	if issues[0].Field != "bonus" || issues[1].Field != "tax" {
		t.Fatalf("unexpected order: %+v", issues)
	}
}

func TestValidatorReject(t *testing.T) {
	v := NewValidator()
	w := httptest.NewRecorder()
	if v.Reject(w, "req-1") {
		t.Fatal("clean validator must not reject")
	}

	v.Add("month", "must be between 1 and 12")
	w = httptest.NewRecorder()
	if !v.Reject(w, "req-1") {
		t.Fatal("validator with issues must reject")
	}
	if w.Code != 400 {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success {
		t.Fatal("success must be false")
	}
	if body.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %s", body.Error.Code)
	}
	if body.RequestID != "req-1" {
		t.Fatalf("requestId not echoed: %s", body.RequestID)
	}
	if _, ok := body.Error.Details["fields"]; !ok {
		t.Fatal("details.fields missing")
	}
}

package genai

import (
	"errors"
	"testing"
)

func TestExtractJSONFencedBlock(t *testing.T) {
	text := "Here is the analysis:\n```json\n[{\"id\":\"a\"}]\n```\nLet me know if you need more."
	raw, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if string(raw) != `[{"id":"a"}]` {
		t.Fatalf("unexpected payload: %s", raw)
	}
}

func TestExtractJSONBarePayload(t *testing.T) {
	raw, err := ExtractJSON(`  {"title":"Direct"}  `)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if string(raw) != `{"title":"Direct"}` {
		t.Fatalf("unexpected payload: %s", raw)
	}
}

func TestExtractJSONRejectsProse(t *testing.T) {
	_, err := ExtractJSON("I'm sorry, I cannot produce that analysis.")
	if err == nil {
		t.Fatal("expected error for non-JSON text")
	}
	if !IsMalformed(err) {
		t.Fatalf("expected malformed classification, got %v", err)
	}
}

func TestExtractJSONRejectsInvalidFencedBlock(t *testing.T) {
	_, err := ExtractJSON("```json\nnot actually json\n```")
	if !IsMalformed(err) {
		t.Fatalf("expected malformed classification, got %v", err)
	}
}

func TestIsQuotaMatchesTypedError(t *testing.T) {
	err := &QuotaError{Status: 429, Raw: "rate limited"}
	if !IsQuota(err) {
		t.Fatal("expected typed quota error to classify")
	}
}

func TestIsQuotaMatchesMessagePatterns(t *testing.T) {
	for _, message := range []string{
		"upstream returned 429",
		"Quota exceeded for project",
		"RESOURCE_EXHAUSTED: try again later",
	} {
		if !IsQuota(errors.New(message)) {
			t.Fatalf("expected %q to classify as quota", message)
		}
	}
	if IsQuota(errors.New("connection refused")) {
		t.Fatal("unrelated error must not classify as quota")
	}
}

func TestClassifyStatus(t *testing.T) {
	err := classifyStatus(429, "slow down")
	if !IsQuota(err) {
		t.Fatalf("expected 429 to classify as quota, got %v", err)
	}

	err = classifyStatus(500, "RESOURCE_EXHAUSTED")
	if !IsQuota(err) {
		t.Fatalf("expected quota body to classify as quota, got %v", err)
	}

	err = classifyStatus(500, "internal")
	if IsQuota(err) || IsMalformed(err) {
		t.Fatalf("expected unclassified error, got %v", err)
	}
}

package llm

import (
	"context"
	"testing"
)

func TestPurposeTagging(t *testing.T) {
	ctx := context.Background()
	if got := PurposeFrom(ctx); got != "unknown" {
		t.Errorf("untagged purpose = %q, want unknown", got)
	}
	ctx = WithPurpose(ctx, "exercise-gen")
	if got := PurposeFrom(ctx); got != "exercise-gen" {
		t.Errorf("purpose = %q, want exercise-gen", got)
	}
}

func TestLoggingProvider_PassesThrough(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: okBatch})
	p := WithLogging(mock, nil)

	resp, err := p.Generate(WithPurpose(context.Background(), "exercise-gen"), Request{})
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.Content) != string(okBatch) {
		t.Errorf("content = %s", resp.Content)
	}
	if p.ModelID() != "mock" {
		t.Errorf("ModelID() = %q", p.ModelID())
	}
}

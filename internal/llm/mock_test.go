package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMockProvider_ReplaysScriptInOrder(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{
			Content: json.RawMessage(`{"prompt":"Cât face 7 + 5?","answer":"12"}`),
			Usage:   Usage{InputTokens: 12, OutputTokens: 9, TotalTokens: 21},
		},
		MockResponse{Content: json.RawMessage(`{"prompt":"Cât face 9 - 4?","answer":"5"}`)},
	)

	first, err := mock.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "un exercițiu de adunare"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(first.Content) != `{"prompt":"Cât face 7 + 5?","answer":"12"}` {
		t.Errorf("first reply = %s", first.Content)
	}
	if first.Usage.InputTokens != 12 || first.StopReason != "end" {
		t.Errorf("usage = %+v stop = %q", first.Usage, first.StopReason)
	}

	second, err := mock.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatal(err)
	}
	if string(second.Content) != `{"prompt":"Cât face 9 - 4?","answer":"5"}` {
		t.Errorf("second reply = %s", second.Content)
	}
}

func TestMockProvider_ExhaustedScriptActsLikeOutage(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("err = %T, want ErrProviderUnavailable", err)
	}
}

func TestMockProvider_RecordsRequests(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})

	_, _ = mock.Generate(context.Background(), Request{
		System:   "Ești un învățător răbdător.",
		Messages: []Message{{Role: RoleUser, Content: "De ce plouă?"}},
	})

	if mock.CallCount() != 1 {
		t.Fatalf("calls = %d, want 1", mock.CallCount())
	}
	if mock.Calls[0].System != "Ești un învățător răbdător." {
		t.Errorf("recorded system = %q", mock.Calls[0].System)
	}
}

func TestMockProvider_ScriptedError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{}})
	_, err := mock.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("err = %T, want ErrRateLimit", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	if got := NewMockProvider().ModelID(); got != "mock" {
		t.Errorf("ModelID() = %q, want mock", got)
	}
}

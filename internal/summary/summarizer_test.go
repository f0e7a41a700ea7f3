package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mwhitfield/redline/internal/llm"
	"github.com/mwhitfield/redline/internal/transcript"
)

type mockLLMClient struct {
	calls      int
	response   string
	err        error
	lastSystem string
	lastUser   string
}

func (m *mockLLMClient) Complete(_ context.Context, system, user string) (string, error) {
	m.calls++
	m.lastSystem = system
	m.lastUser = user
	if m.err != nil && m.calls < 3 {
		return "", m.err
	}
	return m.response, nil
}

func buildSegments(n int) []transcript.RenderedSegment {
	segs := make([]transcript.RenderedSegment, 0, n)
	for i := 0; i < n; i++ {
		label := "Counsel"
		if i%2 == 1 {
			label = "Witness"
		}
		segs = append(segs, transcript.RenderedSegment{
			SpeakerID:    fmt.Sprintf("%d", i%2),
			SpeakerLabel: label,
			Text:         fmt.Sprintf("statement number %d for the record", i),
			StartMs:      int64(i) * 1000,
			EndMs:        int64(i)*1000 + 900,
		})
	}
	return segs
}

func TestSummarize(t *testing.T) {
	client := &mockLLMClient{response: "## Summary"}
	factoryCalls := 0

	s := New("openai/gpt-4o-mini", func(provider, model string) (llm.Client, error) {
		if provider != "openai" {
			t.Fatalf("expected provider openai, got %q", provider)
		}
		if model != "gpt-4o-mini" {
			t.Fatalf("expected model gpt-4o-mini, got %q", model)
		}
		factoryCalls++
		return client, nil
	})
	s.sleep = func(time.Duration) {}

	got, err := s.Summarize(context.Background(), buildSegments(10))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != "## Summary" {
		t.Fatalf("expected summary ## Summary, got %q", got)
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 llm call, got %d", client.calls)
	}
	if factoryCalls != 1 {
		t.Fatalf("expected 1 factory call, got %d", factoryCalls)
	}
	if !strings.Contains(client.lastUser, "COUNSEL: statement number 0") {
		t.Fatalf("expected speaker-attributed prompt, got:\n%s", client.lastUser)
	}
	if client.lastSystem == "" {
		t.Fatal("expected system prompt to be set")
	}
}

func TestSummarizeSkipsShortTranscript(t *testing.T) {
	client := &mockLLMClient{response: "should-not-be-used"}

	s := New("openai/gpt-4o-mini", func(provider, model string) (llm.Client, error) {
		return client, nil
	})
	s.sleep = func(time.Duration) {}

	got, err := s.Summarize(context.Background(), []transcript.RenderedSegment{
		{SpeakerID: "0", Text: "Sustained"},
	})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty summary for short transcript, got %q", got)
	}
	if client.calls != 0 {
		t.Fatalf("expected no llm calls, got %d", client.calls)
	}
}

func TestSummarizeRetriesOnError(t *testing.T) {
	client := &mockLLMClient{response: "eventually", err: errors.New("rate limited")}
	var slept []time.Duration

	s := New("anthropic/claude-3-5-sonnet-20240620", func(provider, model string) (llm.Client, error) {
		return client, nil
	})
	s.sleep = func(d time.Duration) { slept = append(slept, d) }

	got, err := s.Summarize(context.Background(), buildSegments(10))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != "eventually" {
		t.Fatalf("expected retry to succeed, got %q", got)
	}
	if client.calls != 3 {
		t.Fatalf("expected 3 llm calls, got %d", client.calls)
	}
	if len(slept) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d", len(slept))
	}
}

func TestSummarizeInvalidModel(t *testing.T) {
	s := New("not-a-model-ref", func(provider, model string) (llm.Client, error) {
		t.Fatal("factory should not be called")
		return nil, nil
	})
	s.sleep = func(time.Duration) {}

	_, err := s.Summarize(context.Background(), buildSegments(10))
	if err == nil {
		t.Fatal("expected error for invalid model reference, got nil")
	}
	if !strings.Contains(err.Error(), "invalid model format") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRenderPromptSamplesLongTranscripts(t *testing.T) {
	segs := buildSegments(1000)
	prompt := RenderPrompt(segs)

	if !strings.Contains(prompt, "[... transcript elided ...]") {
		t.Fatal("expected elision marker for long transcript")
	}
	if !strings.Contains(prompt, "statement number 0 ") {
		t.Fatal("expected head of transcript to survive sampling")
	}
	if !strings.Contains(prompt, "statement number 999") {
		t.Fatal("expected tail of transcript to survive sampling")
	}
	if strings.Contains(prompt, "statement number 500 ") {
		t.Fatal("expected middle of transcript to be elided")
	}
}

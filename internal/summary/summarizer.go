package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwhitfield/redline/internal/llm"
	"github.com/mwhitfield/redline/internal/transcript"
)

const systemPrompt = `You are a court-reporting assistant. You are given a
speaker-attributed transcript that has been reviewed and corrected by a human
editor. Produce a concise summary in Markdown: a one-paragraph overview,
followed by bullet points of the key exchanges attributed to their speakers.
Do not invent content that is not in the transcript.`

const userTemplate = `Summarize the following transcript.

Transcript:
{{transcript}}`

// Transcripts longer than this are sampled: the middle is elided so the
// prompt still sees the opening and closing exchanges.
const maxPromptSegments = 400

type ClientFactory func(provider, model string) (llm.Client, error)

type Summarizer struct {
	model   string
	factory ClientFactory
	sleep   func(time.Duration)
}

// New builds a Summarizer for a "provider/model_name" reference.
func New(model string, factory ClientFactory) *Summarizer {
	return &Summarizer{
		model:   model,
		factory: factory,
		sleep:   time.Sleep,
	}
}

// Summarize renders the flattened segments into a prompt and asks the
// configured model for a summary. Transcripts under 20 words are skipped and
// return an empty summary without error.
func (s *Summarizer) Summarize(ctx context.Context, segments []transcript.RenderedSegment) (string, error) {
	text := RenderPrompt(segments)
	if len(strings.Fields(text)) < 20 {
		return "", nil
	}

	provider, model, err := llm.ParseModel(s.model)
	if err != nil {
		return "", err
	}

	client, err := s.factory(provider, model)
	if err != nil {
		return "", fmt.Errorf("create llm client: %w", err)
	}

	userContent := strings.ReplaceAll(userTemplate, "{{transcript}}", text)

	backoff := []time.Duration{1 * time.Second, 4 * time.Second, 16 * time.Second}
	var lastErr error
	for attempt := range backoff {
		result, err := client.Complete(ctx, systemPrompt, userContent)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt < len(backoff)-1 {
			s.sleep(backoff[attempt])
		}
	}
	return "", fmt.Errorf("summarize failed after retries: %w", lastErr)
}

// RenderPrompt formats segments as "LABEL: text" lines for the model. Long
// transcripts are sampled: the head and tail are kept and the middle elided.
func RenderPrompt(segments []transcript.RenderedSegment) string {
	if len(segments) > maxPromptSegments {
		head := segments[:maxPromptSegments/2]
		tail := segments[len(segments)-maxPromptSegments/2:]
		sampled := make([]transcript.RenderedSegment, 0, maxPromptSegments+1)
		sampled = append(sampled, head...)
		sampled = append(sampled, transcript.RenderedSegment{Text: "[... transcript elided ...]"})
		sampled = append(sampled, tail...)
		segments = sampled
	}

	var b strings.Builder
	for _, seg := range segments {
		if seg.SpeakerID == "" && seg.SpeakerLabel == "" {
			b.WriteString(seg.Text)
			b.WriteByte('\n')
			continue
		}
		b.WriteString(strings.ToUpper(seg.DisplayLabel()))
		b.WriteString(": ")
		b.WriteString(seg.Text)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

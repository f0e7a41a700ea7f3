// Package ingest turns diarized speech-to-text output into the immutable
// utterance list the editor works on.
package ingest

import (
	"context"
	"fmt"
	"math"
	"strconv"

	prerecorded "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/mwhitfield/redline/internal/transcript"
)

// diarizedUtterance is the provider-independent shape of one diarized
// utterance, so mapping to transcript.Utterance is testable without the SDK.
type diarizedUtterance struct {
	speaker    int
	transcript string
	start      float64
	end        float64
}

type Ingester struct {
	apiKey string
	model  string
}

func NewIngester(apiKey, model string) *Ingester {
	if model == "" {
		model = "nova-2"
	}
	return &Ingester{apiKey: apiKey, model: model}
}

// FromFile transcribes an audio file with diarization and utterance splitting
// enabled and returns the resulting utterance list in spoken order.
func (i *Ingester) FromFile(ctx context.Context, path string) ([]transcript.Utterance, error) {
	client := listen.NewREST(i.apiKey, &interfaces.ClientOptions{})
	dg := prerecorded.New(client)

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       i.model,
		Diarize:     true,
		Punctuate:   true,
		SmartFormat: true,
		Utterances:  true,
	}

	res, err := dg.FromFile(ctx, path, options)
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", path, err)
	}
	if res == nil || res.Results == nil {
		return nil, fmt.Errorf("transcribe %s: empty response", path)
	}

	diarized := make([]diarizedUtterance, 0, len(res.Results.Utterances))
	for _, u := range res.Results.Utterances {
		speaker := 0
		if u.Speaker != nil {
			speaker = *u.Speaker
		}
		diarized = append(diarized, diarizedUtterance{
			speaker:    speaker,
			transcript: u.Transcript,
			start:      u.Start,
			end:        u.End,
		})
	}

	return toUtterances(diarized)
}

// toUtterances assigns ids and converts provider timestamps (seconds) to
// milliseconds. Empty utterances are dropped.
func toUtterances(diarized []diarizedUtterance) ([]transcript.Utterance, error) {
	utterances := make([]transcript.Utterance, 0, len(diarized))
	for _, d := range diarized {
		if d.transcript == "" {
			continue
		}

		id, err := gonanoid.New()
		if err != nil {
			return nil, fmt.Errorf("generate utterance id: %w", err)
		}

		utterances = append(utterances, transcript.Utterance{
			ID:            id,
			SpeakerID:     strconv.Itoa(d.speaker),
			Text:          d.transcript,
			StartMs:       int64(math.Round(d.start * 1000)),
			EndMs:         int64(math.Round(d.end * 1000)),
			SequenceIndex: len(utterances),
		})
	}
	return utterances, nil
}

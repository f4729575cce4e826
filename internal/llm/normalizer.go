package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"findd/internal/search"
)

// DefaultModels are tried in order.
var DefaultModels = []string{"gemini-3-flash-preview", "gemini-2.5-flash"}

var jsonSpanRe = regexp.MustCompile(`(?s)\{.*\}`)

// Normalizer converts utterances into search queries through a Client.
type Normalizer struct {
	Models []string
	Log    zerolog.Logger
}

func NewNormalizer(models []string, log zerolog.Logger) *Normalizer {
	if len(models) == 0 {
		models = DefaultModels
	}
	return &Normalizer{Models: models, Log: log}
}

type rawQuery struct {
	Trigger    string `json:"trigger"`
	TargetType string `json:"target_type"`
	Name       string `json:"name"`
	Drive      string `json:"drive"`
}

// Normalize asks the model to rewrite text as a search query. It returns
// false when there is no client, the reply is unusable, it is not a search
// command or it carries no name. A failing model hands over to the next one
// only when the failure is retryable.
func (n *Normalizer) Normalize(ctx context.Context, client Client, text string) (search.Query, bool) {
	if client == nil {
		n.Log.Warn().Msg("language model client not configured, skipping search normalization")
		return search.Query{}, false
	}
	prompt := BuildPrompt(text)
	models := n.Models
	if len(models) == 0 {
		models = DefaultModels
	}
	seen := make(map[string]bool, len(models))
	for _, model := range models {
		if seen[model] {
			continue
		}
		seen[model] = true
		reply, err := client.Generate(ctx, model, prompt)
		if err != nil {
			n.Log.Warn().Str("model", model).Str("error", shortError(err)).Msg("normalization failed")
			if !IsRetryable(err) {
				return search.Query{}, false
			}
			continue
		}
		n.Log.Info().Str("model", model).Str("reply", reply).Msg("normalization reply")
		return n.parse(reply)
	}
	return search.Query{}, false
}

func (n *Normalizer) parse(reply string) (search.Query, bool) {
	raw, ok := extractJSON(reply)
	if !ok {
		n.Log.Warn().Msg("could not parse normalization reply as JSON")
		return search.Query{}, false
	}
	trigger := strings.ToLower(strings.TrimSpace(raw.Trigger))
	if trigger == "" {
		return search.Query{}, false
	}
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return search.Query{}, false
	}
	return search.Query{
		Trigger:    trigger,
		TargetType: search.ParseTargetType(raw.TargetType),
		Name:       name,
		Drive:      search.NormalizeDrive(raw.Drive),
	}, true
}

// extractJSON parses text as the reply object, falling back to the widest
// {...} span when the model wrapped it in prose or code fences.
func extractJSON(text string) (rawQuery, bool) {
	var q rawQuery
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &q); err == nil {
		return q, true
	}
	span := jsonSpanRe.FindString(text)
	if span == "" {
		return rawQuery{}, false
	}
	if err := json.Unmarshal([]byte(span), &q); err != nil {
		return rawQuery{}, false
	}
	return q, true
}

package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Tammibriggs/we-conect-community/community"
)

// One verdict per configured generated filter, as reported by the model.
type RuleVerdict struct {
	RuleTitle string `json:"rule_title"`
	Violated  bool   `json:"violation_status"`
	Reasoning string `json:"reasoning"`
}

// ViolatedTitles returns the titles of violated rules, preserving verdict
// order.
func ViolatedTitles(verdicts []RuleVerdict) []string {
	var out []string
	for _, v := range verdicts {
		if v.Violated {
			out = append(out, v.RuleTitle)
		}
	}
	return out
}

// Adapter formats posts and generated-filter rules into classification
// requests and parses the structured verdicts back out. It performs exactly
// one external call per post.
type Adapter struct {
	Raw     RawClassifier
	Logger  *slog.Logger
	fetcher *http.Client
}

func NewAdapter(raw RawClassifier, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		Raw:     raw,
		Logger:  logger,
		fetcher: &http.Client{Timeout: 15 * time.Second},
	}
}

// The instruction preamble is intentionally minimal: the contract with the
// model is the JSON shape, not this wording.
const classifyPreamble = `You are a community content moderator. Evaluate the post below against every listed rule.
Respond with only a JSON array containing exactly one object per rule, in order, shaped as:
[{"rule_title": "<title>", "violation_status": <true|false>, "reasoning": "<short explanation>"}]`

func buildClassifyPrompt(post *community.Post, filters []community.GeneratedFilter) string {
	var b strings.Builder
	b.WriteString(classifyPreamble)
	b.WriteString("\n\n### Rules:\n")
	for _, f := range filters {
		fmt.Fprintf(&b, "- %s: %s\n", f.Title, f.Description)
	}
	b.WriteString("\n### Post body:\n")
	b.WriteString(post.Content)
	if post.Media != nil {
		b.WriteString("\n\nThe post includes the attached media.")
	}
	return b.String()
}

// ClassifyPost judges the post against each of the given generated filters in
// a single model call. Any response that does not parse into one verdict per
// rule is a *ClassificationError; results are never partially applied.
func (a *Adapter) ClassifyPost(ctx context.Context, post *community.Post, filters []community.GeneratedFilter) ([]RuleVerdict, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	var media *MediaPayload
	if post.Media != nil {
		var err error
		media, err = a.fetchMedia(ctx, post.Media)
		if err != nil {
			return nil, fmt.Errorf("fetching post media for classification: %w", err)
		}
	}

	prompt := buildClassifyPrompt(post, filters)
	a.Logger.Debug("classifying post", "community", post.CommunityID, "rules", len(filters), "hasMedia", media != nil)

	raw, err := a.Raw.GenerateContent(ctx, prompt, media)
	if err != nil {
		return nil, fmt.Errorf("classification request: %w", err)
	}

	payload := ExtractJSONArray(raw)
	if payload == "" {
		return nil, newClassificationError("no JSON array in model output", raw, nil)
	}
	var verdicts []RuleVerdict
	if err := json.Unmarshal([]byte(payload), &verdicts); err != nil {
		return nil, newClassificationError("malformed verdict array", raw, err)
	}
	// a missing verdict would leave that rule silently unjudged
	if len(verdicts) != len(filters) {
		return nil, newClassificationError(fmt.Sprintf("expected %d verdicts, got %d", len(filters), len(verdicts)), raw, nil)
	}
	for _, v := range verdicts {
		if v.RuleTitle == "" {
			return nil, newClassificationError("verdict missing rule_title", raw, nil)
		}
	}
	return verdicts, nil
}

func (a *Adapter) fetchMedia(ctx context.Context, ref *community.MediaRef) (*MediaPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.fetcher.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	mediaFetchCount.WithLabelValues(fmt.Sprint(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media fetch failed statusCode=%d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}
	mimeType := ref.MimeType
	if mimeType == "" {
		mimeType = resp.Header.Get("Content-Type")
	}
	return &MediaPayload{MimeType: mimeType, Data: data}, nil
}

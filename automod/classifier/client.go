package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"golang.org/x/time/rate"
)

// Media content handed to the classification model alongside the prompt.
type MediaPayload struct {
	MimeType string
	Data     []byte
}

// The opaque external classification capability: one prompt (plus optional
// media) in, raw text out. Implementations make exactly one call per
// invocation; retry policy belongs to callers.
type RawClassifier interface {
	GenerateContent(ctx context.Context, prompt string, media *MediaPayload) (string, error)
}

const (
	defaultGeminiHost  = "https://generativelanguage.googleapis.com"
	defaultGeminiModel = "gemini-1.5-flash"

	// response bodies beyond this are a malfunctioning upstream, not a verdict
	maxResponseSize = 4 * 1024 * 1024
)

// GeminiClient calls the Generative Language REST API. A single bounded HTTP
// request per GenerateContent call; deadlines come from the caller's context
// and the client timeout.
type GeminiClient struct {
	Client *http.Client
	Host   string
	Model  string
	APIKey string
	// optional request rate limit toward the API
	Limiter *rate.Limiter
}

func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		Client: &http.Client{Timeout: 30 * time.Second},
		Host:   defaultGeminiHost,
		Model:  defaultGeminiModel,
		APIKey: apiKey,
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, media *MediaPayload) (string, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	parts := []geminiPart{{Text: prompt}}
	if media != nil {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: media.MimeType,
			Data:     base64.StdEncoding.EncodeToString(media.Data),
		}})
	}
	body, err := json.Marshal(geminiRequest{Contents: []geminiContent{{Parts: parts}}})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.Host, c.Model, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "we-conect-automod/"+versioninfo.Short())

	start := time.Now()
	defer func() {
		geminiAPIDuration.Observe(time.Since(start).Seconds())
	}()

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	geminiAPICount.WithLabelValues(fmt.Sprint(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini request failed statusCode=%d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("reading gemini response: %w", err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parsing gemini response envelope: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("gemini response contained no candidates")
	}

	var out bytes.Buffer
	for _, part := range parsed.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	return out.String(), nil
}

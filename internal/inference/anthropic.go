package inference

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const (
	anthropicDefaultModel   = "claude-3-5-sonnet-20241022"
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
)

// anthropic speaks the messages API.
type anthropic struct {
	hc      *http.Client
	apiKey  string
	model   string
	baseURL string
}

func newAnthropic(hc *http.Client, apiKey, model, baseURL string) *anthropic {
	if model == "" {
		model = anthropicDefaultModel
	}
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	return &anthropic{hc: hc, apiKey: apiKey, model: model, baseURL: baseURL}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string          `json:"role"`
	Content []anthropicPart `json:"content"`
}

type anthropicPart struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *anthropic) complete(ctx context.Context, req request) (string, error) {
	var parts []anthropicPart
	if req.Image != nil {
		parts = append(parts, anthropicPart{
			Type: "image",
			Source: &anthropicSource{
				Type:      "base64",
				MediaType: req.Image.MediaType,
				Data:      encodeBase64(req.Image.Data),
			},
		})
	}
	parts = append(parts, anthropicPart{Type: "text", Text: req.Prompt})
	body := anthropicRequest{
		Model:     a.model,
		MaxTokens: req.MaxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: parts}},
	}

	var resp anthropicResponse
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}
	if err := postJSON(ctx, a.hc, a.baseURL+"/v1/messages", headers, body, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", errors.New("api error: " + strings.TrimSpace(resp.Error.Message))
	}
	var b strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	if content := strings.TrimSpace(b.String()); content != "" {
		return content, nil
	}
	return "", errors.New("empty content (stop_reason=" + resp.StopReason + ")")
}

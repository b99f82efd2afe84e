package inference

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

const (
	googleDefaultModel   = "gemini-2.0-flash-exp"
	googleDefaultBaseURL = "https://generativelanguage.googleapis.com"
)

// google speaks the Gemini generateContent API.
type google struct {
	hc      *http.Client
	apiKey  string
	model   string
	baseURL string
}

func newGoogle(hc *http.Client, apiKey, model, baseURL string) *google {
	if model == "" {
		model = googleDefaultModel
	}
	if baseURL == "" {
		baseURL = googleDefaultBaseURL
	}
	return &google{hc: hc, apiKey: apiKey, model: model, baseURL: baseURL}
}

type googleRequest struct {
	Contents         []googleContent        `json:"contents"`
	GenerationConfig googleGenerationConfig `json:"generationConfig"`
}

type googleGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *googleInlineData `json:"inline_data,omitempty"`
}

type googleInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type googleResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (g *google) complete(ctx context.Context, req request) (string, error) {
	parts := []googlePart{{Text: req.Prompt}}
	if req.Image != nil {
		parts = append(parts, googlePart{InlineData: &googleInlineData{
			MimeType: req.Image.MediaType,
			Data:     encodeBase64(req.Image.Data),
		}})
	}
	body := googleRequest{
		Contents:         []googleContent{{Role: "user", Parts: parts}},
		GenerationConfig: googleGenerationConfig{MaxOutputTokens: req.MaxTokens},
	}

	endpoint := g.baseURL + "/v1beta/models/" + url.PathEscape(g.model) + ":generateContent"
	var resp googleResponse
	headers := map[string]string{"x-goog-api-key": g.apiKey}
	if err := postJSON(ctx, g.hc, endpoint, headers, body, &resp); err != nil {
		return "", err
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", errors.New("blocked: " + resp.PromptFeedback.BlockReason)
	}
	for _, cand := range resp.Candidates {
		var b strings.Builder
		for _, p := range cand.Content.Parts {
			b.WriteString(p.Text)
		}
		if content := strings.TrimSpace(b.String()); content != "" {
			return content, nil
		}
	}
	return "", errors.New("empty content")
}

package inference

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const (
	openAIDefaultModel   = "gpt-4o"
	openAIDefaultBaseURL = "https://api.openai.com/v1"
)

// openAI speaks the chat completions API.
type openAI struct {
	hc      *http.Client
	apiKey  string
	model   string
	baseURL string
}

func newOpenAI(hc *http.Client, apiKey, model, baseURL string) *openAI {
	if model == "" {
		model = openAIDefaultModel
	}
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	return &openAI{hc: hc, apiKey: apiKey, model: model, baseURL: baseURL}
}

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type openAIMessage struct {
	Role    string       `json:"role"`
	Content []openAIPart `json:"content"`
}

type openAIPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (o *openAI) complete(ctx context.Context, req request) (string, error) {
	parts := []openAIPart{{Type: "text", Text: req.Prompt}}
	if req.Image != nil {
		parts = append(parts, openAIPart{
			Type:     "image_url",
			ImageURL: &openAIImageURL{URL: "data:" + req.Image.MediaType + ";base64," + encodeBase64(req.Image.Data)},
		})
	}
	body := openAIRequest{
		Model:     o.model,
		Messages:  []openAIMessage{{Role: "user", Content: parts}},
		MaxTokens: req.MaxTokens,
	}

	var resp openAIResponse
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	if err := postJSON(ctx, o.hc, o.baseURL+"/chat/completions", headers, body, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", errors.New("api error: " + strings.TrimSpace(resp.Error.Message))
	}
	for _, choice := range resp.Choices {
		if content := firstNonEmpty(choice.Message.Content); content != "" {
			return content, nil
		}
		if choice.Message.Refusal != "" {
			return "", errors.New("refused: " + choice.Message.Refusal)
		}
	}
	return "", errors.New("empty content")
}

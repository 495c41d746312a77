package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"whisper-bridge/errors"
)

const defaultBaseURL = "https://api.openai.com/v1"

// LLMConfig configures the chat-completions endpoint and HTTP behavior.
type LLMConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// LLMTranslator implements contract.Translator against an OpenAI-style
// chat-completions endpoint. One request covers every target language and
// the model answers with a single JSON object mapping language code to
// translated text.
type LLMTranslator struct {
	cfg LLMConfig
}

func NewLLMTranslator(cfg LLMConfig) *LLMTranslator {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &LLMTranslator{cfg: cfg}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (t *LLMTranslator) Translate(ctx context.Context, text string, targetLanguages []string) (map[string]string, error) {
	body, err := json.Marshal(chatRequest{
		Model:          t.cfg.Model,
		Messages:       []chatMessage{{Role: "user", Content: buildPrompt(text, targetLanguages)}},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", errors.ErrTranslationUnavailable, err)
	}

	url := strings.TrimRight(t.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", errors.ErrTranslationUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	}

	resp, err := t.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrTranslationUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", errors.ErrTranslationUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: backend returned %d", errors.ErrTranslationUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", errors.ErrTranslationUnavailable, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", errors.ErrTranslationUnavailable)
	}

	translations := map[string]string{}
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &translations); err != nil {
		return nil, fmt.Errorf("%w: malformed translation object: %v", errors.ErrTranslationUnavailable, err)
	}
	return translations, nil
}

// buildPrompt asks for one JSON object keyed by language code. Informal
// language, romanized text and slang are called out explicitly because
// casual chat is the dominant input.
func buildPrompt(text string, targetLanguages []string) string {
	var sb strings.Builder
	sb.WriteString("Translate the following message into the specified languages. ")
	sb.WriteString("Handle informal language, romanized text, and slang appropriately.\n\n")
	fmt.Fprintf(&sb, "Message: %q\n\nTranslate into:\n", text)
	for _, lang := range targetLanguages {
		fmt.Fprintf(&sb, "- %s: (provide translation)\n", lang)
	}
	sb.WriteString("\nReturn ONLY a JSON object with language codes as keys and translations as values. ")
	sb.WriteString(`Example: {"es": "translated text", "fr": "translated text"}`)
	return sb.String()
}

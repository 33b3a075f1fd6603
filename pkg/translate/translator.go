// Package translate converts text between English and Arabic for the tutor UI.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"buddy-tutor-be/pkg/llm"
)

var ErrNotConfigured = errors.New("translation disabled: no provider configured")

// Translator translates a single chunk.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
	Configured() bool
}

// ============================================================================
// LLM
// ============================================================================

type LLMTranslator struct {
	provider llm.LLMProvider
	model    string
}

func NewLLMTranslator(provider llm.LLMProvider, model string) *LLMTranslator {
	return &LLMTranslator{provider: provider, model: model}
}

func (t *LLMTranslator) Configured() bool {
	return t.provider != nil
}

func (t *LLMTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	prompt := fmt.Sprintf("You are a professional translator. Translate the following text from %s to %s "+
		"accurately and naturally. Preserve meaning and tone. Output ONLY the translated text with no explanations.\n\n"+
		"Text:\n%s", strings.ToUpper(source), strings.ToUpper(target), text)

	out, err := t.provider.Generate(ctx, prompt,
		llm.WithModel(t.model),
		llm.WithTemperature(0),
	)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", llm.ErrEmptyResponse
	}
	return out, nil
}

// ============================================================================
// LibreTranslate
// ============================================================================

const DefaultLibreEndpoint = "https://libretranslate.com"

type LibreTranslator struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewLibreTranslator(endpoint, apiKey string, timeout time.Duration) *LibreTranslator {
	if endpoint == "" {
		endpoint = DefaultLibreEndpoint
	}
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &LibreTranslator{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

func (t *LibreTranslator) Configured() bool {
	return true
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

func (t *LibreTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	body, err := json.Marshal(libreRequest{Q: text, Source: source, Target: target, Format: "text", APIKey: t.apiKey})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/translate", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("libretranslate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("libretranslate status %d: %s", resp.StatusCode, string(snippet))
	}

	var parsed libreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode libretranslate response: %w", err)
	}
	return parsed.TranslatedText, nil
}

// ============================================================================
// Noop
// ============================================================================

type NoopTranslator struct{}

func (NoopTranslator) Configured() bool {
	return false
}

func (NoopTranslator) Translate(context.Context, string, string, string) (string, error) {
	return "", ErrNotConfigured
}

// NewTranslator selects a backend by name. llm is used when kind is "llm"
// or "deepseek", or when kind is empty and a provider is available.
func NewTranslator(kind string, provider llm.LLMProvider, model, libreEndpoint, libreKey string) Translator {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "libre":
		return NewLibreTranslator(libreEndpoint, libreKey, 0)
	case "llm", "deepseek":
		if provider != nil {
			return NewLLMTranslator(provider, model)
		}
	case "noop", "none":
		return NoopTranslator{}
	case "":
		if provider != nil {
			return NewLLMTranslator(provider, model)
		}
	}
	return NoopTranslator{}
}

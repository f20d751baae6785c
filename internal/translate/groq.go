package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	defaultGroqURL = "https://api.groq.com/openai/v1/chat/completions"
	groqModel      = "llama-3.3-70b-versatile"

	// detectMinChars is the minimum message length worth detecting;
	// anything shorter defaults to English.
	detectMinChars = 20

	maxResponseSize = 1 * 1024 * 1024
)

// GroqClient talks to the Groq OpenAI-compatible chat API. It implements
// both Translator and Detector.
type GroqClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGroqClient creates a client with a 10 second request timeout.
func NewGroqClient(apiKey string, logger *slog.Logger) *GroqClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroqClient{
		apiKey:     apiKey,
		baseURL:    defaultGroqURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Translate renders text in the target language, keeping the persona's tone
// and leaving *actions* untranslated. Any failure returns the input.
func (c *GroqClient) Translate(ctx context.Context, text, lang string) string {
	if lang == "" || lang == "en" {
		return text
	}

	langName, ok := langNames[lang]
	if !ok {
		langName = "the user's language"
	}

	prompt := fmt.Sprintf(`Translate this response to %s. Keep the personality, humor, and tone natural. Ralph is a friendly, slightly confused office boss who uses idioms and computer references. Keep all *actions* like *scratches head* or *adjusts tie* untranslated.

Response to translate:
%s

Translate ONLY the response text, nothing else.`, langName, text)

	translated, err := c.complete(ctx, prompt, 0.7, 500)
	if err != nil {
		c.logger.Warn("translation failed, returning original text", "lang", lang, "error", err)
		return text
	}
	c.logger.Info("translated response", "lang", lang)
	return translated
}

var isoCodeRe = regexp.MustCompile(`^[a-z]{2}$`)

// Detect guesses the ISO 639-1 code for text. Messages shorter than 20
// characters, and any detection failure, report "en".
func (c *GroqClient) Detect(ctx context.Context, text string) string {
	if len(strings.TrimSpace(text)) < detectMinChars {
		return "en"
	}

	prompt := fmt.Sprintf(`What language is this text written in? Answer with ONLY the two-letter ISO 639-1 code (e.g. en, es, fr, ja), nothing else.

Text:
%s`, text)

	answer, err := c.complete(ctx, prompt, 0, 5)
	if err != nil {
		c.logger.Warn("language detection failed, defaulting to English", "error", err)
		return "en"
	}

	code := strings.ToLower(strings.TrimSpace(answer))
	if !isoCodeRe.MatchString(code) {
		c.logger.Warn("language detection returned an unexpected answer", "answer", answer)
		return "en"
	}
	c.logger.Info("detected language", "lang", code)
	return code
}

func (c *GroqClient) complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       groqModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

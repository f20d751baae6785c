package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/snail3d/ralphd/internal/domain"
)

// maxResponseSize caps the model response body to avoid memory exhaustion
// on a runaway generation.
const maxResponseSize = 10 * 1024 * 1024

// OllamaClient generates PRDs through a local Ollama server.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOllamaClient creates a client for the given Ollama base URL and model.
// Generation is slow; timeout bounds the whole call.
func NewOllamaClient(baseURL, model string, timeout time.Duration, logger *slog.Logger) *OllamaClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// GeneratePRD asks the model for a complete document as JSON and decodes it.
func (c *OllamaClient) GeneratePRD(ctx context.Context, req GenerateRequest) (domain.PRD, error) {
	prompt := buildPRDPrompt(req)

	raw, err := c.generate(ctx, prompt, "json")
	if err != nil {
		return domain.PRD{}, fmt.Errorf("generate prd: %w", err)
	}

	doc := domain.NewPRD()
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return domain.PRD{}, fmt.Errorf("decode generated prd: %w", err)
	}
	if doc.ProjectName == "" {
		doc.ProjectName = req.ProjectName
	}
	if doc.ProjectDescription == "" {
		doc.ProjectDescription = req.Description
	}
	if doc.StarterPrompt == "" {
		doc.StarterPrompt = req.StarterPrompt
	}

	c.logger.Info("generated prd", "project", doc.ProjectName, "tasks", doc.TotalTasks())
	return doc, nil
}

// Summarize builds a deep summary of the planning conversation. Only the
// most recent exchanges are sent to keep the prompt small.
func (c *OllamaClient) Summarize(ctx context.Context, messages []domain.Message) (string, error) {
	if len(messages) < 2 {
		return "", nil
	}

	recent := messages
	if len(recent) > 16 {
		recent = recent[len(recent)-16:]
	}

	var lines []string
	for _, m := range recent {
		tag := "U"
		if m.Role == domain.RoleAssistant {
			tag = "R"
		}
		content := m.Content
		if len(content) > 200 {
			content = content[:200]
		}
		lines = append(lines, fmt.Sprintf("%s: %s", tag, content))
	}

	prompt := fmt.Sprintf(`Summarize this PRD planning conversation DEEPLY:

%s

Include: project purpose, tech stack, features, aesthetics, constraints. Be thorough.`, strings.Join(lines, "\n"))

	summary, err := c.generate(ctx, prompt, "")
	if err != nil {
		return "", fmt.Errorf("summarize conversation: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

func (c *OllamaClient) generate(ctx context.Context, prompt, format string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: format,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
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
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Response == "" {
		return "", fmt.Errorf("empty model response")
	}
	return parsed.Response, nil
}

func buildPRDPrompt(req GenerateRequest) string {
	var b strings.Builder
	b.WriteString("You are a product requirements author. Produce a complete PRD as a single JSON object.\n\n")
	fmt.Fprintf(&b, "Project name: %s\n", req.ProjectName)
	fmt.Fprintf(&b, "Description: %s\n", req.Description)
	fmt.Fprintf(&b, "Build instructions: %s\n", req.StarterPrompt)
	if req.TechStack.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", req.TechStack.Language)
	}
	if req.TechStack.Framework != "" {
		fmt.Fprintf(&b, "Framework: %s\n", req.TechStack.Framework)
	}
	if req.TechStack.Database != "" {
		fmt.Fprintf(&b, "Database: %s\n", req.TechStack.Database)
	}
	fmt.Fprintf(&b, "\nSpread roughly %d tasks across the phases 00_security, 01_setup, 02_core, 03_api, 04_test.\n", req.TaskCount)
	b.WriteString(`Use exactly this JSON shape:
{
  "project_name": "...",
  "project_description": "...",
  "starter_prompt": "...",
  "github": true,
  "tech_stack": {"language": "...", "framework": "...", "database": "...", "other": []},
  "file_structure": ["..."],
  "prds": {
    "00_security": {"name": "Security", "tasks": [{"id": "SEC-001", "title": "...", "description": "...", "file": "...", "priority": "high"}]},
    "01_setup": {"name": "Setup", "tasks": []},
    "02_core": {"name": "Core", "tasks": []},
    "03_api": {"name": "API", "tasks": []},
    "04_test": {"name": "Testing", "tasks": []}
  }
}
Task priorities are one of: low, medium, high, critical. Respond with JSON only.`)
	return b.String()
}

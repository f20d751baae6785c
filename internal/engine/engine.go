// Package engine wraps the external PRD-authoring backend. The backend is
// treated as opaque and slow: one blocking call in, a full document out.
package engine

import (
	"context"

	"github.com/snail3d/ralphd/internal/domain"
)

// GenerateRequest carries everything the backend needs to author a full
// document.
type GenerateRequest struct {
	ProjectName   string
	Description   string
	StarterPrompt string
	TechStack     domain.TechStack
	TaskCount     int
}

// Generator is the PRD-authoring backend. GeneratePRD may fail; the caller
// reports the failure in-band and retries on a later turn. Summarize is
// best-effort conversation summarization used before generation.
type Generator interface {
	GeneratePRD(ctx context.Context, req GenerateRequest) (domain.PRD, error)
	Summarize(ctx context.Context, messages []domain.Message) (string, error)
}

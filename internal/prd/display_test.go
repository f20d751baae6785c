package prd

import (
	"strings"
	"testing"

	"github.com/snail3d/ralphd/internal/domain"
)

func TestFormatDisplayCompressed(t *testing.T) {
	out := FormatDisplay(sampleDoc(), true)
	if out != Compress(sampleDoc()) {
		t.Error("compressed display must be exactly the compressed block")
	}
}

func TestFormatReadableSections(t *testing.T) {
	out := FormatDisplay(sampleDoc(), false)

	if !strings.HasPrefix(out, "=== PRD: Recipe Box ===") {
		t.Errorf("header missing:\n%s", out)
	}
	for _, section := range []string{
		"STARTER PROMPT (Build Instructions):",
		"PROJECT DESCRIPTION:",
		"GITHUB INTEGRATION:",
		"TECH STACK:",
		"FILE STRUCTURE:",
		"TASKS:",
	} {
		if !strings.Contains(out, section) {
			t.Errorf("missing section %q", section)
		}
	}

	// The readable view never abbreviates.
	if !strings.Contains(out, "Language: Python") {
		t.Error("readable view must keep full phrase text")
	}
	if !strings.Contains(out, "  ✓ GitHub repository") {
		t.Error("github checklist missing")
	}
	if !strings.Contains(out, "Security [00_security]") {
		t.Error("phase header missing")
	}
	if !strings.Contains(out, "[SEC-001] [CRITICAL] Set up SECRET_KEY") {
		t.Error("task line missing or priority not uppercased")
	}
}

func TestFormatReadableEmptyDocument(t *testing.T) {
	out := FormatDisplay(domain.NewPRD(), false)

	if !strings.HasPrefix(out, "=== PRD: Project ===") {
		t.Errorf("empty document should fall back to generic header:\n%s", out)
	}
	if !strings.Contains(out, "No description") {
		t.Error("missing starter prompt placeholder")
	}
	if !strings.Contains(out, "N/A") {
		t.Error("missing description placeholder")
	}
	if strings.Contains(out, "GITHUB INTEGRATION:") {
		t.Error("github section should be omitted when disabled")
	}
}

package prd

import (
	"fmt"
	"strings"

	"github.com/snail3d/ralphd/internal/domain"
)

// FormatDisplay renders the document for the editor. Compressed mode returns
// the full copiable legend block; otherwise a sectioned plain-text view for
// human reading, without key or phrase substitution.
func FormatDisplay(doc domain.PRD, compressed bool) string {
	if compressed {
		return Compress(doc)
	}
	return formatReadable(doc)
}

func formatReadable(doc domain.PRD) string {
	var out []string

	name := doc.ProjectName
	if name == "" {
		name = "Project"
	}
	out = append(out, "=== PRD: "+name+" ===\n")

	out = append(out, "STARTER PROMPT (Build Instructions):")
	out = append(out, strings.Repeat("-", 40))
	switch {
	case doc.StarterPrompt != "":
		out = append(out, doc.StarterPrompt)
	case doc.ProjectDescription != "":
		out = append(out, doc.ProjectDescription)
	default:
		out = append(out, "No description")
	}
	out = append(out, "\n")

	out = append(out, "PROJECT DESCRIPTION:")
	out = append(out, strings.Repeat("-", 40))
	if doc.ProjectDescription != "" {
		out = append(out, doc.ProjectDescription)
	} else {
		out = append(out, "N/A")
	}
	out = append(out, "\n")

	if doc.GithubEnabled {
		out = append(out, "GITHUB INTEGRATION:")
		out = append(out, strings.Repeat("-", 40))
		out = append(out, "  ✓ GitHub repository")
		out = append(out, "  ✓ GitHub Actions CI/CD")
		out = append(out, "\n")
	}

	out = append(out, "TECH STACK:")
	out = append(out, strings.Repeat("-", 40))
	ts := doc.TechStack
	if ts.Language != "" {
		out = append(out, fmt.Sprintf("  Language: %s", ts.Language))
	}
	if ts.Framework != "" {
		out = append(out, fmt.Sprintf("  Framework: %s", ts.Framework))
	}
	if ts.Database != "" {
		out = append(out, fmt.Sprintf("  Database: %s", ts.Database))
	}
	if len(ts.Other) > 0 {
		out = append(out, fmt.Sprintf("  Other: %s", strings.Join(ts.Other, ", ")))
	}
	out = append(out, "\n")

	out = append(out, "FILE STRUCTURE:")
	out = append(out, strings.Repeat("-", 40))
	for _, f := range doc.FileStructure {
		out = append(out, "  "+f)
	}
	out = append(out, "\n")

	out = append(out, "TASKS:")
	out = append(out, strings.Repeat("-", 40))
	phases := doc.Phases
	for _, entry := range phases.Ordered() {
		out = append(out, fmt.Sprintf("\n%s [%s]", entry.Phase.Name, entry.Key))
		out = append(out, strings.Repeat("-", 20))
		for _, task := range entry.Phase.Tasks {
			out = append(out, fmt.Sprintf("  [%s] [%s] %s", task.ID, strings.ToUpper(string(task.Priority)), task.Title))
			out = append(out, fmt.Sprintf("    → %s", task.Description))
			out = append(out, fmt.Sprintf("    → File: %s", task.File))
		}
	}

	return strings.Join(out, "\n")
}

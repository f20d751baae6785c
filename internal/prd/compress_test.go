package prd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/snail3d/ralphd/internal/domain"
)

func sampleDoc() domain.PRD {
	doc := domain.NewPRD()
	doc.ProjectName = "Recipe Box"
	doc.ProjectDescription = "a recipe sharing app"
	doc.StarterPrompt = "Create a recipe sharing app"
	doc.GithubEnabled = true
	doc.TechStack = domain.TechStack{Language: "Python", Framework: "Flask", Database: "PostgreSQL", Other: []string{}}
	doc.FileStructure = []string{"app.py", "config.py"}
	doc.Phases.Security.Tasks = []domain.Task{
		{ID: "SEC-001", Title: "Set up SECRET_KEY", Description: "Create environment configuration", File: "config.py", Priority: domain.PriorityCritical},
	}
	return doc
}

func TestCompressLegendPrefix(t *testing.T) {
	out := Compress(sampleDoc())

	if !strings.HasPrefix(out, Legend+"\n\n") {
		t.Fatal("compressed output must start with the legend followed by a blank line")
	}
	if strings.HasSuffix(out, "\n") {
		t.Error("compressed output must not end with a trailing newline")
	}
}

func TestCompressBodyIsValidJSON(t *testing.T) {
	out := Compress(sampleDoc())
	body := strings.TrimPrefix(out, Legend+"\n\n")

	var tree map[string]any
	if err := json.Unmarshal([]byte(body), &tree); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}

	for _, key := range []string{"pn", "pd", "sp", "gh", "ts", "fs", "p"} {
		if _, ok := tree[key]; !ok {
			t.Errorf("body missing abbreviated key %q", key)
		}
	}
	for _, long := range []string{"project_name", "github", "tech_stack", "file_structure", "prds"} {
		if _, ok := tree[long]; ok {
			t.Errorf("body still has long key %q", long)
		}
	}
	if gh, ok := tree["gh"].(bool); !ok || !gh {
		t.Errorf("gh = %v, want the document's github flag", tree["gh"])
	}
}

func TestCompressTopLevelKeyOrder(t *testing.T) {
	out := Compress(sampleDoc())
	body := strings.TrimPrefix(out, Legend+"\n\n")

	// Consumers diff the block, so document-level keys keep their declared
	// order rather than Go's alphabetical map encoding.
	last := -1
	for _, key := range []string{`"pn"`, `"pd"`, `"sp"`, `"gh"`, `"ts"`, `"fs"`, `"p"`} {
		idx := strings.Index(body, key)
		if idx < 0 {
			t.Fatalf("key %s missing from body", key)
		}
		if idx < last {
			t.Errorf("key %s out of order at %d (previous key at %d)", key, idx, last)
		}
		last = idx
	}
}

func TestCompressKeysNested(t *testing.T) {
	out := Compress(sampleDoc())
	body := strings.TrimPrefix(out, Legend+"\n\n")

	var tree map[string]any
	if err := json.Unmarshal([]byte(body), &tree); err != nil {
		t.Fatal(err)
	}

	phases, ok := tree["p"].(map[string]any)
	if !ok {
		t.Fatal("prds section missing")
	}
	sec, ok := phases["00_security"].(map[string]any)
	if !ok {
		t.Fatal("phase keys must keep their 00_..04_ form")
	}
	tasks, ok := sec["t"].([]any)
	if !ok || len(tasks) != 1 {
		t.Fatalf("security tasks = %v", sec["t"])
	}
	task := tasks[0].(map[string]any)
	for _, key := range []string{"id", "ti", "d", "f", "pr"} {
		if _, ok := task[key]; !ok {
			t.Errorf("task missing key %q, got %v", key, task)
		}
	}

	ts := tree["ts"].(map[string]any)
	if _, ok := ts["lang"]; !ok {
		t.Errorf("tech stack keys not abbreviated: %v", ts)
	}
}

func TestCompressPhrases(t *testing.T) {
	out := Compress(sampleDoc())

	if strings.Contains(out[len(Legend):], "Python") {
		t.Error("Python should compress to Py")
	}
	body := strings.TrimPrefix(out, Legend+"\n\n")
	if !strings.Contains(body, `"Py"`) {
		t.Error("language leaf should be Py")
	}
	// "Create environment configuration" → "C env cfg"
	if !strings.Contains(body, "C env cfg") {
		t.Errorf("phrase substitution not applied in declared order:\n%s", body)
	}
}

func TestCompressIsPure(t *testing.T) {
	doc := sampleDoc()

	first := Compress(doc)
	second := Compress(doc)

	if first != second {
		t.Error("compression must be deterministic")
	}
	if doc.TechStack.Language != "Python" {
		t.Error("compression must not mutate the document")
	}
}

func TestCompressEmptyDocument(t *testing.T) {
	out := Compress(domain.NewPRD())

	if !strings.HasPrefix(out, Legend) {
		t.Fatal("legend missing on empty document")
	}
	body := strings.TrimPrefix(out, Legend+"\n\n")
	var tree map[string]any
	if err := json.Unmarshal([]byte(body), &tree); err != nil {
		t.Fatalf("empty document body invalid: %v", err)
	}
}

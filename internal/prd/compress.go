// Package prd renders PRD documents for display and export. The compressed
// form is a legend-prefixed JSON artifact consumed by downstream tooling and
// language models; its layout is a contract and must stay byte-stable.
package prd

import (
	"bytes"
	"encoding/json"
	"slices"
	"sort"
	"strings"

	"github.com/snail3d/ralphd/internal/domain"
)

// Legend is the fixed header prepended to every compressed document. It
// explains the key and phrase abbreviations and the build-loop recipe.
const Legend = `=== PRD LEGEND (decode before reading) ===
KEYS: pn=project_name pd=project_description sp=starter_prompt ts=tech_stack
      gh=github fs=file_structure p=prds n=name d=description t=tasks ti=title
      f=file pr=priority ac=acceptance_criteria pfc=prompt_for_claude
      cmd=commands ccs=claude_code_setup ifc=instructions_for_claude
PHRASES: C=Create I=Install R=Run T=Test V=Verify Py=Python JS=JavaScript
         env=environment var=variable cfg=config db=database api=API
         req=required opt=optional impl=implement dep=dependencies
         auth=authentication sec=security fn=function cls=class

=== RALPH BUILD LOOP (how to use this PRD) ===
1. START: Run setup cmd, create .gitignore + .env.example FIRST (security!)
2. LOOP: Pick highest priority incomplete task from prds sections
3. READ: Check the "f" (file) field - read existing code if file exists
4. BUILD: Implement the task per description + acceptance_criteria
5. TEST: Run test cmd, verify it works
6. COMMIT: If tests pass → git add + commit with task id (e.g. "SEC-001: Add .gitignore")
7. MARK: Update task status to "complete" in your tracking
8. REPEAT: Go to step 2, pick next task
9. DONE: When all tasks complete, run full test suite

ORDER: 00_security → 01_setup → 02_core → 03_api → 04_test
===`

// keyMap abbreviates mapping keys at every nesting depth. Keys not in the
// table pass through unchanged, so re-compressing already-short keys is a
// no-op.
var keyMap = map[string]string{
	"project_name":            "pn",
	"project_description":     "pd",
	"starter_prompt":          "sp",
	"github":                  "gh",
	"tech_stack":              "ts",
	"file_structure":          "fs",
	"prds":                    "p",
	"name":                    "n",
	"description":             "d",
	"tasks":                   "t",
	"title":                   "ti",
	"file":                    "f",
	"priority":                "pr",
	"acceptance_criteria":     "ac",
	"prompt_for_claude":       "pfc",
	"commands":                "cmd",
	"claude_code_setup":       "ccs",
	"instructions_for_claude": "ifc",
	"how_to_run_ralph_mode":   "hrm",
	"is_public":               "pub",
	"language":                "lang",
	"framework":               "fw",
	"database":                "db",
	"other":                   "oth",
	"setup":                   "su",
	"run":                     "ru",
	"test":                    "te",
	"deploy":                  "dep",
}

type phrasePair struct {
	from string
	to   string
}

// phraseTable is applied to every string leaf in declared order. The order
// is load-bearing: entries overlap (an abbreviation may equal an earlier
// substitution's output), and legacy consumers expect exactly this sequence.
var phraseTable = []phrasePair{
	{"Create ", "C "},
	{"Install ", "I "},
	{"Run ", "R "},
	{"Test ", "T "},
	{"Verify ", "V "},
	{"Python", "Py"},
	{"JavaScript", "JS"},
	{"environment", "env"},
	{"variable", "var"},
	{"configuration", "cfg"},
	{"database", "db"},
	{"required", "req"},
	{"optional", "opt"},
	{"implement", "impl"},
	{"dependencies", "dep"},
	{"authentication", "auth"},
	{"security", "sec"},
	{"function", "fn"},
	{"Initialize", "Init"},
	{"Application", "App"},
	{"comprehensive", "full"},
	{"CRITICAL", "!"},
	{"IMPORTANT", "!!"},
	{"acceptance_criteria", "ac"},
}

// Compress renders the document as the complete copiable legend-prefixed
// block. It is a pure transform: the stored document is never compressed in
// place, and the output is never parsed back.
func Compress(doc domain.PRD) string {
	raw, err := json.Marshal(doc)
	if err != nil {
		// A PRD contains only marshalable fields; this cannot happen.
		return Legend
	}

	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return Legend
	}

	tree = compressKeys(tree)
	tree = compressPhrases(tree)
	if m, ok := tree.(map[string]any); ok {
		tree = orderedObject(m)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree); err != nil {
		return Legend
	}

	return Legend + "\n\n" + strings.TrimRight(buf.String(), "\n")
}

// topOrder fixes the emission order of document-level keys. Consumers diff
// the block against earlier artifacts, so the sequence must not drift with
// Go's alphabetical map encoding.
var topOrder = []string{"pn", "pd", "sp", "gh", "ts", "fs", "p"}

// orderedObject marshals its entries with topOrder keys first, remaining
// keys sorted after.
type orderedObject map[string]any

func (o orderedObject) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(o))
	for _, k := range topOrder {
		if _, ok := o[k]; ok {
			keys = append(keys, k)
		}
	}
	extra := make([]string, 0, len(o))
	for k := range o {
		if !slices.Contains(topOrder, k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		var val bytes.Buffer
		enc := json.NewEncoder(&val)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(o[k]); err != nil {
			return nil, err
		}
		buf.Write(bytes.TrimRight(val.Bytes(), "\n"))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// compressKeys recursively substitutes mapping keys via keyMap. Sequences
// are walked; non-mapping, non-sequence leaves are untouched.
func compressKeys(v any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			key := k
			if short, ok := keyMap[k]; ok {
				key = short
			}
			out[key] = compressKeys(child)
		}
		return out
	case []any:
		for i, child := range node {
			node[i] = compressKeys(child)
		}
		return node
	default:
		return v
	}
}

// compressPhrases applies the phrase table to every string leaf.
func compressPhrases(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			node[k] = compressPhrases(child)
		}
		return node
	case []any:
		for i, child := range node {
			node[i] = compressPhrases(child)
		}
		return node
	case string:
		return applyPhrases(node)
	default:
		return v
	}
}

func applyPhrases(s string) string {
	for _, p := range phraseTable {
		s = strings.ReplaceAll(s, p.from, p.to)
	}
	return s
}

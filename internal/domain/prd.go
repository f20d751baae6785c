// Package domain contains core domain types for the Ralph PRD engine.
package domain

// Priority classifies how urgent a task is.
type Priority string

// Task priorities, lowest to highest.
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Task is a single actionable item inside a phase.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	File        string   `json:"file"`
	Priority    Priority `json:"priority"`
}

// TechStack describes the technology choices for the project.
type TechStack struct {
	Language  string   `json:"language,omitempty"`
	Framework string   `json:"framework,omitempty"`
	Database  string   `json:"database,omitempty"`
	Other     []string `json:"other,omitempty"`
}

// Phase groups tasks under one of the five fixed build categories.
type Phase struct {
	Name  string `json:"name"`
	Tasks []Task `json:"tasks"`
}

// Phases holds the five build phases. The set of phases and their order are
// fixed; phases are never added or removed. The JSON keys are the legacy
// serialized forms that downstream tooling parses by convention.
type Phases struct {
	Security Phase `json:"00_security"`
	Setup    Phase `json:"01_setup"`
	Core     Phase `json:"02_core"`
	API      Phase `json:"03_api"`
	Test     Phase `json:"04_test"`
}

// PhaseKeys returns the serialized phase keys in build order.
func PhaseKeys() []string {
	return []string{"00_security", "01_setup", "02_core", "03_api", "04_test"}
}

// Ordered returns pointers to the phases in build order, paired with their
// serialized keys.
func (p *Phases) Ordered() []struct {
	Key   string
	Phase *Phase
} {
	return []struct {
		Key   string
		Phase *Phase
	}{
		{"00_security", &p.Security},
		{"01_setup", &p.Setup},
		{"02_core", &p.Core},
		{"03_api", &p.API},
		{"04_test", &p.Test},
	}
}

// PRD is the structured product-requirements record built by the
// conversation engine.
type PRD struct {
	ProjectName        string    `json:"project_name"`
	ProjectDescription string    `json:"project_description"`
	StarterPrompt      string    `json:"starter_prompt"`
	GithubEnabled      bool      `json:"github"`
	TechStack          TechStack `json:"tech_stack"`
	FileStructure      []string  `json:"file_structure"`
	Phases             Phases    `json:"prds"`
}

// NewPRD returns an empty document with the five named phases in place.
func NewPRD() PRD {
	return PRD{
		FileStructure: []string{},
		Phases: Phases{
			Security: Phase{Name: "Security", Tasks: []Task{}},
			Setup:    Phase{Name: "Setup", Tasks: []Task{}},
			Core:     Phase{Name: "Core", Tasks: []Task{}},
			API:      Phase{Name: "API", Tasks: []Task{}},
			Test:     Phase{Name: "Testing", Tasks: []Task{}},
		},
	}
}

// TotalTasks counts tasks across all five phases.
func (p *PRD) TotalTasks() int {
	total := 0
	for _, entry := range p.Phases.Ordered() {
		total += len(entry.Phase.Tasks)
	}
	return total
}

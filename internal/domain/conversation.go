package domain

import "time"

// Role identifies who authored a chat message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation log. The log is append-only.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Gender selects the salutation used when addressing the user.
type Gender string

// Salutation genders. Male maps to "Mr. Worms", female to "Mrs. Worms".
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Salutation returns "Mr." or "Mrs." for the gender.
func (g Gender) Salutation() string {
	if g == GenderFemale {
		return "Mrs."
	}
	return "Mr."
}

// Suggestion is a pending proposal the user approves or rejects with a
// thumbs up/down vote.
type Suggestion struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Type     string `json:"type"`
	Speaker  string `json:"speaker"`
	Approved bool   `json:"approved,omitempty"`
	Rejected bool   `json:"rejected,omitempty"`
}

// Suggestion types produced by the backroom debate.
const (
	SuggestionSkeptic  = "backroom_stool"
	SuggestionOptimist = "backroom_gomer"
)

// DebateEntry is one skeptic/optimist exchange from the backroom.
type DebateEntry struct {
	Skeptic   string    `json:"stool"`
	Optimist  string    `json:"gomer"`
	Timestamp time.Time `json:"timestamp"`
}

// Step indexes the conversation state machine.
type Step int

// Conversation steps. StepGithub exists in the model but the normal flow
// skips it: capturing the purpose enables GitHub unconditionally and jumps
// straight to the tech-stack question. It stays reachable only through a
// conversation restored from a save made by an older flow.
const (
	StepWelcome     Step = 0
	StepPurpose     Step = 1
	StepGithub      Step = 2
	StepTechStack   Step = 3
	StepFeatures    Step = 4
	StepAesthetics  Step = 5
	StepConstraints Step = 6
	StepGenerate    Step = 7
	StepDone        Step = 8
)

// ConversationState holds everything one session accumulates. It is owned
// exclusively by the session's controller; step only decreases through an
// explicit external reset.
type ConversationState struct {
	SessionID           string        `json:"session_id"`
	Step                Step          `json:"step"`
	Gender              Gender        `json:"gender"`
	Purpose             string        `json:"purpose"`
	TechStackRaw        string        `json:"tech_stack"`
	Aesthetics          string        `json:"aesthetics"`
	Constraints         []string      `json:"constraints"`
	Messages            []Message     `json:"messages"`
	Suggestions         []Suggestion  `json:"suggestions"`
	Approved            []Suggestion  `json:"approved"`
	Rejected            []Suggestion  `json:"rejected"`
	Backroom            []DebateEntry `json:"backroom"`
	PRD                 PRD           `json:"prd"`
	Language            string        `json:"language"`
	DonationsSuppressed bool          `json:"stop_donations"`
	AutoSummary         string        `json:"auto_summary,omitempty"`
}

// NewConversationState returns an empty state at step 0 with an empty
// document in place.
func NewConversationState(sessionID string) *ConversationState {
	return &ConversationState{
		SessionID:   sessionID,
		Step:        StepWelcome,
		Gender:      GenderMale,
		Constraints: []string{},
		Messages:    []Message{},
		Suggestions: []Suggestion{},
		Approved:    []Suggestion{},
		Rejected:    []Suggestion{},
		Backroom:    []DebateEntry{},
		PRD:         NewPRD(),
	}
}

package chat

import (
	"fmt"

	"github.com/snail3d/ralphd/internal/domain"
)

// The backroom analysts: Stool picks the project apart, Gomer cheers it on.
// Their takes surface once per session as voteable suggestions.

const (
	skepticSpeaker  = "Stool (Skeptic)"
	optimistSpeaker = "Gomer (Optimist)"
)

// approvalThreshold is the cumulative approved-suggestion count that jumps
// the conversation straight to the aesthetics question, regardless of the
// current step. The jump is deliberate legacy behavior; keep it isolated
// here so it can be revisited in one place.
const approvalThreshold = 2

// skepticConcerns are Stool's takes; the project name is woven in.
func skepticConcerns(projectName string) []string {
	return []string{
		"Edge cases to consider: What happens when users have poor connectivity?",
		fmt.Sprintf("Potential performance bottlenecks with %s", projectName),
		"Security implications of this architecture",
		"Scalability concerns as user base grows",
		"Error handling strategies needed",
	}
}

var optimistTakes = []string{
	"User experience will be smooth and intuitive",
	"This could really solve a real pain point for users",
	"The feature set aligns well with market needs",
	"Strong potential for viral growth and adoption",
	"Technical approach is solid and maintainable",
}

// BackroomExchange is the debate payload returned alongside the step-3
// response.
type BackroomExchange struct {
	Skeptic  string `json:"stool"`
	Optimist string `json:"gomer"`
}

// startBackroomDebate records one skeptic/optimist exchange and exposes it
// as two pending suggestions. Suggestion ids combine millisecond timestamp
// and sequence index so they are unique within the pending list.
func (c *Controller) startBackroomDebate() BackroomExchange {
	projectName := c.state.PRD.ProjectName
	if projectName == "" {
		projectName = "This project"
	}

	concerns := skepticConcerns(projectName)
	skeptic := concerns[c.chooser.Intn(len(concerns))]
	optimist := optimistTakes[c.chooser.Intn(len(optimistTakes))]

	now := c.clock.Now()
	c.state.Backroom = append(c.state.Backroom, domain.DebateEntry{
		Skeptic:   skeptic,
		Optimist:  optimist,
		Timestamp: now,
	})

	millis := now.UnixMilli()
	c.state.Suggestions = []domain.Suggestion{
		{
			ID:      fmt.Sprintf("suggest_%d_0", millis),
			Text:    skeptic,
			Type:    domain.SuggestionSkeptic,
			Speaker: skepticSpeaker,
		},
		{
			ID:      fmt.Sprintf("suggest_%d_1", millis),
			Text:    optimist,
			Type:    domain.SuggestionOptimist,
			Speaker: optimistSpeaker,
		},
	}

	return BackroomExchange{Skeptic: skeptic, Optimist: optimist}
}

// handleVote resolves a thumbs up/down on a pending suggestion. An unknown
// id gets a graceful fallback and mutates nothing.
func (c *Controller) handleVote(suggestionID, vote string) TurnResult {
	state := c.state
	for i, sugg := range state.Suggestions {
		if sugg.ID != suggestionID {
			continue
		}

		state.Suggestions = append(state.Suggestions[:i], state.Suggestions[i+1:]...)

		var response string
		if vote == "up" {
			sugg.Approved = true
			state.Approved = append(state.Approved, sugg)
			response = fmt.Sprintf("*thumbs up back* %s! Added '%s' to your PRD!", c.idiom(), sugg.Text)
		} else {
			sugg.Rejected = true
			state.Rejected = append(state.Rejected, sugg)
			response = fmt.Sprintf("*nods* Got it. Skipping '%s'. %s", sugg.Text, c.computerRef())
		}

		response = c.applyApprovalThreshold(response)

		return TurnResult{Response: response, Suggestions: state.Suggestions, PRDPreview: c.preview()}
	}

	return TurnResult{
		Response:    "*scratches head* Hmm, couldn't find that suggestion...",
		Suggestions: state.Suggestions,
		PRDPreview:  c.preview(),
	}
}

// applyApprovalThreshold forces the conversation to the aesthetics step
// once enough suggestions have been approved, appending the transition
// message to the response.
func (c *Controller) applyApprovalThreshold(response string) string {
	if len(c.state.Approved) >= approvalThreshold {
		c.state.Step = domain.StepAesthetics
		response += "\n\n*types with two fingers* Okay, moving on! Any constraints?"
	}
	return response
}

package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/snail3d/ralphd/internal/domain"
)

// donationKeywords mark assistant asides that should never leak into
// summaries or titles.
var donationKeywords = []string{"donate", "donation", "paypal", "venmo", "ko-fi"}

// donationInterval is how many messages pass between donation asides.
const donationInterval = 12

// appendDonationAside tacks the periodic donation plea onto a response,
// unless the user has asked for them to stop. Caller holds c.mu.
func (c *Controller) appendDonationAside(response string) string {
	if c.state.DonationsSuppressed {
		return response
	}
	n := len(c.state.Messages)
	if n == 0 || n%donationInterval != 0 {
		return response
	}
	return response + "\n\n*slides a donation jar across the desk* If Ralph's been helpful, a coffee keeps the lights on. Say 'stop donations' and I'll never mention it again."
}

// wantsDonationsStopped reports whether a user message asks for donation
// asides to stop. The flag is sticky once set.
func wantsDonationsStopped(message string) bool {
	lower := strings.ToLower(message)
	if !strings.Contains(lower, "donat") {
		return false
	}
	return strings.Contains(lower, "stop") || strings.Contains(lower, "no more") || strings.Contains(lower, "enough")
}

// Title derives a short human label for the session. Fallback chain: project
// name, then a name inferred from the purpose, then "<Framework> App", then
// "New Chat".
func (c *Controller) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name := c.state.PRD.ProjectName; name != "" {
		return name
	}
	if c.state.Purpose != "" {
		if name := inferProjectName(c.state.Purpose); name != "My Project" {
			return name
		}
	}
	if fw := c.state.PRD.TechStack.Framework; fw != "" {
		return fw + " App"
	}
	return "New Chat"
}

// Summary is the one-line session descriptor used in listings.
func (c *Controller) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.PRD.ProjectName == "" {
		return "New Chat"
	}
	tech := c.state.PRD.TechStack.Framework
	if tech == "" {
		tech = "TBD"
	}
	return fmt.Sprintf("Building: %s | Tech: %s | Tasks: %d",
		c.state.PRD.ProjectName, tech, c.state.PRD.TotalTasks())
}

// MessageCount reports how many messages the session holds.
func (c *Controller) MessageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.state.Messages)
}

// Summarize produces (and caches) a deep summary of the conversation via
// the PRD engine. A cached summary is returned without another call.
func (c *Controller) Summarize(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.AutoSummary != "" {
		return c.state.AutoSummary, nil
	}
	if c.engine == nil {
		return "", nil
	}
	summary, err := c.engine.Summarize(ctx, c.filteredMessages())
	if err != nil {
		return "", err
	}
	c.state.AutoSummary = summary
	return summary, nil
}

// filteredMessages returns the transcript with donation asides removed, for
// summarization. Caller holds c.mu.
func (c *Controller) filteredMessages() []domain.Message {
	out := make([]domain.Message, 0, len(c.state.Messages))
	for _, msg := range c.state.Messages {
		if msg.Role == domain.RoleAssistant && containsAny(strings.ToLower(msg.Content), donationKeywords) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

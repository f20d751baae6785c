// Package chat implements the Ralph conversation engine: a step-indexed
// dialogue controller that builds a PRD turn by turn, a backroom
// suggestion/voting loop, and a registry of live sessions.
package chat

import (
	"fmt"
	"math/rand"
	"time"
)

// Chooser picks one of n alternatives. Production uses uniform randomness;
// tests substitute a fixed chooser so template selection is deterministic.
type Chooser interface {
	Intn(n int) int
}

// RandomChooser selects uniformly at random.
type RandomChooser struct {
	rng *rand.Rand
}

// NewRandomChooser seeds a chooser from the current time.
func NewRandomChooser() *RandomChooser {
	return &RandomChooser{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Intn returns a uniform random index in [0, n).
func (c *RandomChooser) Intn(n int) int { return c.rng.Intn(n) }

// FixedChooser always picks the same index; the zero value picks 0.
type FixedChooser struct {
	Index int
}

// Intn returns the fixed index, clamped to [0, n).
func (c FixedChooser) Intn(n int) int {
	if c.Index >= n {
		return n - 1
	}
	return c.Index
}

// Clock supplies the current time. Injectable so greetings, suggestion ids
// and eviction are testable without real timers.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ralphIdioms are Ralph's exclamations, chosen at random.
var ralphIdioms = []string{
	"Cool cool cool", "Holy moly", "Well I'll be", "Hot dog",
	"Jeepers creepers", "Good gravy", "Oh boy oh boy",
	"Well slap my thigh", "Mother of pearl", "Great scott",
	"By George", "Land's sakes", "My stars", "Goodness gracious",
}

// computerRefs are Ralph's dated computer references.
var computerRefs = []string{
	"It's like loading double-density floppy disks while defragging",
	"Reminds me of when we upgraded from dial-up, if you know what I mean",
	"It's like trying to run Windows 95 on a potato",
	"Like when the office network went down and we had to use carrier pigeons",
	"Reminds me of the Y2K panic, but with more flair",
	"It's like when the mainframe crashed and we lost everything",
	"Like when we discovered the cloud was just someone else's computer",
	"Reminds me of when we automated the mailroom and the robot went rogue",
	"Like when IT installed Clippy on everyone's computer",
	"It's like trying to teach accounting to use a mouse",
}

// templateVars carries everything a response template can interpolate.
type templateVars struct {
	Salutation  string
	Idiom       string
	ComputerRef string
	TotalTasks  int
}

type responseTemplate func(v templateVars) string

// aestheticsStayTemplates answer feature content captured while asking about
// aesthetics (state 5).
var aestheticsStayTemplates = []responseTemplate{
	func(v templateVars) string {
		return fmt.Sprintf("*eyes light up* Oh hot dog! %s Worms, this is getting spicy! Keep going!\n\nTotal tasks: %d. What else?", v.Salutation, v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*leans forward* %s! Love it, love it! We're cooking with gas now!\n\nTotal tasks: %d. What else you got?", v.Idiom, v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*rubs hands together* Excellent! This is gonna be good, %s Worms! \n\n%s\n\nTotal tasks: %d. More?", v.Salutation, v.ComputerRef, v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*nods enthusiastically* Yes! Yes! That's the stuff! \n\nTotal tasks: %d. What else?", v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*adjusts tie excitedly* %s! We're really building something here!\n\nTotal tasks: %d. Keep 'em coming!", v.Idiom, v.TotalTasks)
	},
}

// constraintsStayTemplates answer feature content captured while asking
// about constraints (state 6).
var constraintsStayTemplates = []responseTemplate{
	func(v templateVars) string {
		return fmt.Sprintf("*scribbles furiously* %s! Added it! \n\n%s\n\nTotal tasks: %d. What else?", v.Idiom, v.ComputerRef, v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*types rapidly* Oh yes! This is coming together, %s Worms!\n\nTotal tasks: %d. More?", v.Salutation, v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*eyes wide* Brilliant! Absolutely brilliant! \n\nTotal tasks: %d. Keep going!", v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*nods approvingly* Love where this is going! Hot dog!\n\nTotal tasks: %d. What else?", v.TotalTasks)
	},
}

// generateStayTemplates answer feature content captured while waiting for
// the generate go-ahead (state 7).
var generateStayTemplates = []responseTemplate{
	func(v templateVars) string {
		return fmt.Sprintf("*eyes widen* %s! Yes, yes, YES! That's exactly what we need!\n\nTotal tasks: %d. \n\nSay 'ready' when you're done adding features, or keep 'em coming!", v.Idiom, v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*types with one finger* Oh you're on fire today, %s Worms! \n\n%s\n\nTotal tasks: %d. What else?", v.Salutation, v.ComputerRef, v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*grins broadly* This is gonna be amazing! Hot dog! \n\nTotal tasks: %d. Keep going or say 'ready' to generate!", v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*nods vigorously* Absolutely! Adding it now! \n\nTotal tasks: %d. More features or ready to roll?", v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*leans back* %s! We're building something special here! \n\nTotal tasks: %d. What else you got?", v.Idiom, v.TotalTasks)
	},
}

// generateClarifyTemplates answer ambiguous input at state 7 without
// mutating anything.
var generateClarifyTemplates = []responseTemplate{
	func(v templateVars) string {
		return fmt.Sprintf("*listens closely* I hear you, %s Worms. Should I add that as a feature, or are you ready to generate the PRD? \n\n(Currently have %d tasks)", v.Salutation, v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*raises eyebrow* Interesting... Want me to note that down, or shall we finalize this PRD? \n\n(Total tasks so far: %d)", v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*taps chin* Hmm, good point. Should that go in the PRD, or are we good to generate? \n\n(We've got %d tasks ready)", v.TotalTasks)
	},
	func(v templateVars) string {
		return fmt.Sprintf("*looks thoughtful* %s! Should I capture that, or are you ready to roll? \n\n(Tasks: %d)", v.Idiom, v.TotalTasks)
	},
}

// renderAll expands every template in a set against the same vars. Tests
// use it to assert set membership instead of exact equality.
func renderAll(set []responseTemplate, v templateVars) []string {
	out := make([]string, len(set))
	for i, tpl := range set {
		out[i] = tpl(v)
	}
	return out
}

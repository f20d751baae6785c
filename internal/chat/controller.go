package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/snail3d/ralphd/internal/domain"
	"github.com/snail3d/ralphd/internal/engine"
	"github.com/snail3d/ralphd/internal/prd"
	"github.com/snail3d/ralphd/internal/translate"
)

// generatedTaskCount is the task total requested from the PRD backend.
const generatedTaskCount = 34

// featureMinChars is the length below which a message is never treated as
// feature content by the stay-in-state heuristics.
const featureMinChars = 20

// Keyword sets for the stay-in-state guards. Each capture state has its own
// historical set.
var (
	aestheticsFeatureKeywords  = []string{"feature", "add", "include", "want", "need", "should", "also", "and", "multiplayer", "ui", "design"}
	constraintsFeatureKeywords = []string{"feature", "add", "include", "want", "need", "should", "also", "and", "multiplayer", "design", "interface"}
	generateFeatureKeywords    = []string{"feature", "add", "include", "want", "need", "should", "also", "and", "multiplayer", "design", "interface", "sound", "animation", "vibe"}
)

// TurnInput is one inbound turn: a free-text message and/or a structured
// action.
type TurnInput struct {
	Message      string
	Action       string
	SuggestionID string
	Vote         string
	GenderToggle string
}

// TurnResult is the engine's answer to one turn.
type TurnResult struct {
	Response    string
	Suggestions []domain.Suggestion
	PRDPreview  string
	Backroom    *BackroomExchange
}

// Deps are the controller's collaborators. Zero-value fields get safe
// defaults: a no-op engine is not substituted, but translator, detector,
// chooser and clock all are.
type Deps struct {
	Engine     engine.Generator
	Translator translate.Translator
	Detector   translate.Detector
	Chooser    Chooser
	Clock      Clock
	Logger     *slog.Logger
}

// Controller runs one session's conversation. It owns the session's
// ConversationState exclusively; a mutex serializes concurrent turns for
// the same session at this boundary.
type Controller struct {
	sessionID  string
	state      *domain.ConversationState
	engine     engine.Generator
	translator translate.Translator
	detector   translate.Detector
	chooser    Chooser
	clock      Clock
	logger     *slog.Logger
	steps      map[domain.Step]stepFunc

	mu sync.Mutex
}

type stepFunc func(ctx context.Context, message string, in TurnInput) TurnResult

// New creates a controller with an empty conversation at step 0.
func New(sessionID string, deps Deps) *Controller {
	if deps.Translator == nil {
		deps.Translator = translate.Noop{}
	}
	if deps.Detector == nil {
		deps.Detector = translate.Noop{}
	}
	if deps.Chooser == nil {
		deps.Chooser = NewRandomChooser()
	}
	if deps.Clock == nil {
		deps.Clock = systemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	c := &Controller{
		sessionID:  sessionID,
		state:      domain.NewConversationState(sessionID),
		engine:     deps.Engine,
		translator: deps.Translator,
		detector:   deps.Detector,
		chooser:    deps.Chooser,
		clock:      deps.Clock,
		logger:     deps.Logger,
	}
	c.steps = map[domain.Step]stepFunc{
		domain.StepWelcome:     c.handleWelcome,
		domain.StepPurpose:     c.handlePurpose,
		domain.StepGithub:      c.handleGithub,
		domain.StepTechStack:   c.handleTechStack,
		domain.StepFeatures:    c.handleFeatures,
		domain.StepAesthetics:  c.handleAesthetics,
		domain.StepConstraints: c.handleConstraints,
		domain.StepGenerate:    c.handleGenerate,
	}
	return c
}

// SessionID returns the session this controller owns.
func (c *Controller) SessionID() string { return c.sessionID }

// State returns the underlying conversation state without locking. It is
// for single-goroutine use; concurrent readers go through PRDStatus,
// RenderPRD, or Snapshot.
func (c *Controller) State() *domain.ConversationState { return c.state }

// PRDStatus summarizes the session's document for API responses.
type PRDStatus struct {
	Title     string
	TaskCount int
}

// PRDStatus reads the document under the controller lock so a turn running
// on another request cannot be observed mid-mutation.
func (c *Controller) PRDStatus() PRDStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return PRDStatus{
		Title:     c.state.PRD.ProjectName,
		TaskCount: c.state.PRD.TotalTasks(),
	}
}

// RenderPRD renders the document and reports its status in one locked
// read. Compressed selects the legend-prefixed block over the readable
// view.
func (c *Controller) RenderPRD(compressed bool) (string, PRDStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := PRDStatus{
		Title:     c.state.PRD.ProjectName,
		TaskCount: c.state.PRD.TotalTasks(),
	}
	return prd.FormatDisplay(c.state.PRD, compressed), status
}

// ProcessMessage runs one conversation turn to completion. Cross-cutting
// actions (gender toggle, suggestion votes) short-circuit before the step
// dispatch; everything else flows through the step table, with steps not in
// the table (including the terminal step) falling back to the default
// acknowledgement.
func (c *Controller) ProcessMessage(ctx context.Context, in TurnInput) TurnResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.state

	if in.GenderToggle != "" {
		state.Gender = domain.Gender(in.GenderToggle)
		response := fmt.Sprintf("*adjusts tie* Noted, %s Worms! %s!", c.salutation(), c.idiom())
		return TurnResult{Response: response, Suggestions: []domain.Suggestion{}, PRDPreview: c.preview()}
	}

	if in.SuggestionID != "" && in.Vote != "" {
		return c.handleVote(in.SuggestionID, in.Vote)
	}

	message := in.Message
	if message != "" {
		// The session language is set once, from the first message long
		// enough for detection to be meaningful.
		if state.Language == "" && utf8.RuneCountInString(message) >= featureMinChars {
			state.Language = c.detector.Detect(ctx, message)
			c.logger.Info("set conversation language", "session_id", c.sessionID, "lang", state.Language)
		}
		if wantsDonationsStopped(message) {
			state.DonationsSuppressed = true
		}
		state.Messages = append(state.Messages, domain.Message{Role: domain.RoleUser, Content: message})
	}

	var result TurnResult
	if handler, ok := c.steps[state.Step]; ok {
		result = handler(ctx, message, in)
	} else {
		result = c.handleFallback(ctx, message)
	}
	result.Response = c.appendDonationAside(result.Response)
	return result
}

// handleWelcome greets and moves on without reading the message or touching
// the document.
func (c *Controller) handleWelcome(ctx context.Context, _ string, _ TurnInput) TurnResult {
	c.state.Step = domain.StepPurpose

	hour := c.clock.Now().Hour()
	period := "evening"
	switch {
	case hour >= 5 && hour < 12:
		period = "morning"
	case hour >= 12 && hour < 18:
		period = "afternoon"
	}

	response := fmt.Sprintf("Good %s, %s Worms. What are we building today?", period, c.salutation())
	response = c.translator.Translate(ctx, response, c.state.Language)
	return TurnResult{Response: response, Suggestions: []domain.Suggestion{}}
}

// handlePurpose seeds the document from the project idea and skips straight
// to the tech-stack question. GitHub is enabled unconditionally, so the
// confirmation step never runs in the normal flow.
func (c *Controller) handlePurpose(_ context.Context, message string, _ TurnInput) TurnResult {
	state := c.state
	state.Purpose = message
	state.Step = domain.StepTechStack

	doc := &state.PRD
	doc.ProjectName = inferProjectName(message)
	doc.ProjectDescription = truncateRunes(message, 200)
	doc.StarterPrompt = message
	doc.GithubEnabled = true
	doc.Phases.Setup.Tasks = githubSetupTasks()

	response := fmt.Sprintf("Got it. **%s**.\n\nTech stack?", doc.ProjectName)
	return TurnResult{Response: response, Suggestions: []domain.Suggestion{}, PRDPreview: c.preview()}
}

// handleGithub confirms or declines GitHub integration. Normal conversations
// never reach it (the purpose step force-enables GitHub); it stays for
// sessions restored from saves made before the skip.
func (c *Controller) handleGithub(_ context.Context, message string, in TurnInput) TurnResult {
	state := c.state
	lower := strings.ToLower(message)

	if in.Action == "github_yes" || strings.Contains(lower, "yes") || strings.Contains(lower, "github") {
		state.PRD.GithubEnabled = true
		state.PRD.Phases.Setup.Tasks = githubSetupTasks()
	} else {
		state.PRD.GithubEnabled = false
	}

	state.Step = domain.StepTechStack
	return TurnResult{Response: "Noted. Tech stack?", Suggestions: []domain.Suggestion{}, PRDPreview: c.preview()}
}

// stackRule maps a keyword in the tech-stack answer to a stack and file
// layout. Rules are checked in declared order; first match wins.
type stackRule struct {
	keyword string
	stack   domain.TechStack
}

var stackRules = []stackRule{
	{"python", domain.TechStack{Language: "Py", Framework: "Flask", Database: "PostgreSQL", Other: []string{}}},
	{"flask", domain.TechStack{Language: "Py", Framework: "Flask", Database: "PostgreSQL", Other: []string{}}},
	{"node", domain.TechStack{Language: "JS", Framework: "Express", Database: "MongoDB", Other: []string{}}},
	{"react", domain.TechStack{Language: "JS", Framework: "React", Database: "None", Other: []string{"Node.js"}}},
}

// handleTechStack captures the stack, derives the file structure, and kicks
// off the backroom debate. Unmatched input leaves the stack untouched.
func (c *Controller) handleTechStack(_ context.Context, message string, _ TurnInput) TurnResult {
	state := c.state
	state.TechStackRaw = message
	lower := strings.ToLower(message)

	for _, rule := range stackRules {
		if strings.Contains(lower, rule.keyword) {
			state.PRD.TechStack = rule.stack
			break
		}
	}

	switch {
	case strings.Contains(lower, "flask") || strings.Contains(lower, "python"):
		state.PRD.FileStructure = []string{"app.py", "config.py", "requirements.txt", "templates/", "static/"}
	case strings.Contains(lower, "node") || strings.Contains(lower, "express"):
		state.PRD.FileStructure = []string{"server.js", "package.json", "routes/", "public/"}
	case strings.Contains(lower, "react"):
		state.PRD.FileStructure = []string{"src/", "package.json", "public/", "components/"}
	}

	state.Step = domain.StepFeatures

	// The debate fires exactly once per session.
	var backroom *BackroomExchange
	if len(state.Backroom) == 0 {
		exchange := c.startBackroomDebate()
		backroom = &exchange
	}

	response := fmt.Sprintf("Got it. %s.\n\nWait... I hear the back room talking about this. Let's listen in.\n\n(👍👎 Vote on their perspectives below)", message)
	return TurnResult{
		Response:    response,
		Suggestions: state.Suggestions,
		PRDPreview:  c.preview(),
		Backroom:    backroom,
	}
}

// handleFeatures splits the message into up to five features and turns each
// into a core task with a deterministic id.
func (c *Controller) handleFeatures(_ context.Context, message string, _ TurnInput) TurnResult {
	state := c.state
	state.Step = domain.StepAesthetics

	var features []string
	for _, part := range strings.Split(strings.ReplaceAll(message, "\n", ","), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			features = append(features, trimmed)
		}
	}

	capped := features
	if len(capped) > 5 {
		capped = capped[:5]
	}
	for i, feature := range capped {
		state.PRD.Phases.Core.Tasks = append(state.PRD.Phases.Core.Tasks, domain.Task{
			ID:          fmt.Sprintf("CORE-%d", 100+i),
			Title:       feature,
			Description: feature,
			File:        "core.py",
			Priority:    domain.PriorityHigh,
		})
	}

	response := fmt.Sprintf("Got it. %d features. Total tasks: %d.\n\n**Aesthetics.**\n\nAny inspiration websites? Color schemes? Feel and vibe you're going for?",
		len(features), state.PRD.TotalTasks())
	return TurnResult{Response: response, Suggestions: []domain.Suggestion{}, PRDPreview: c.preview()}
}

// handleAesthetics stores the look-and-feel answer, unless the message reads
// like more feature content, in which case it keeps capturing and stays put.
func (c *Controller) handleAesthetics(_ context.Context, message string, _ TurnInput) TurnResult {
	state := c.state
	state.Aesthetics = message

	if looksLikeFeature(message, aestheticsFeatureKeywords) {
		c.appendFeatureTask(message)
		response := c.pickTemplate(aestheticsStayTemplates)
		return TurnResult{Response: response, Suggestions: []domain.Suggestion{}, PRDPreview: c.preview()}
	}

	state.Step = domain.StepConstraints
	response := fmt.Sprintf("Noted. %s...\n\nAny constraints or deadlines?", truncateRunes(message, 100))
	return TurnResult{Response: response, Suggestions: []domain.Suggestion{}, PRDPreview: c.preview()}
}

// handleConstraints records the constraint and injects the fixed security
// and setup tasks, unless the message is still feature content.
func (c *Controller) handleConstraints(_ context.Context, message string, _ TurnInput) TurnResult {
	state := c.state

	if looksLikeFeature(message, constraintsFeatureKeywords) {
		c.appendFeatureTask(message)
		response := c.pickTemplate(constraintsStayTemplates)
		return TurnResult{Response: response, Suggestions: []domain.Suggestion{}, PRDPreview: c.preview()}
	}

	state.Constraints = append(state.Constraints, message)

	state.PRD.Phases.Security.Tasks = []domain.Task{
		{ID: "SEC-001", Title: "Set up SECRET_KEY", Description: "Configure secret key", File: "config.py", Priority: domain.PriorityCritical},
		{ID: "SEC-002", Title: "Input validation", Description: "Validate all inputs", File: "validators.py", Priority: domain.PriorityHigh},
	}
	state.PRD.Phases.Setup.Tasks = []domain.Task{
		{ID: "SET-001", Title: "Initialize project", Description: fmt.Sprintf("Create %s structure", state.PRD.ProjectName), File: "setup.py", Priority: domain.PriorityHigh},
		{ID: "SET-002", Title: "Install deps", Description: "Install required packages", File: "requirements.txt", Priority: domain.PriorityMedium},
	}

	state.Step = domain.StepGenerate
	response := fmt.Sprintf("Got it. PRD ready. %d tasks across 5 phases.\n\nReady to generate?", state.PRD.TotalTasks())
	return TurnResult{Response: response, Suggestions: []domain.Suggestion{}, PRDPreview: c.preview()}
}

// handleGenerate waits for the go-ahead, still accepting late feature
// content. On the signal it calls the PRD backend; failure is reported
// in-band and the step stays put so the next turn retries.
func (c *Controller) handleGenerate(ctx context.Context, message string, in TurnInput) TurnResult {
	state := c.state
	lower := strings.ToLower(message)

	if looksLikeFeature(message, generateFeatureKeywords) && !strings.Contains(lower, "generate") {
		c.appendFeatureTask(message)
		response := c.pickTemplate(generateStayTemplates)
		return TurnResult{Response: response, Suggestions: []domain.Suggestion{}, PRDPreview: c.preview()}
	}

	ready := in.Action == "generate_prd" ||
		strings.Contains(lower, "generate") ||
		strings.Contains(lower, "yes") ||
		strings.Contains(lower, "ready")
	if !ready {
		response := c.pickTemplate(generateClarifyTemplates)
		return TurnResult{Response: response, Suggestions: []domain.Suggestion{}, PRDPreview: c.preview()}
	}

	if state.AutoSummary == "" && c.engine != nil {
		summary, err := c.engine.Summarize(ctx, c.filteredMessages())
		if err != nil {
			c.logger.Warn("auto-summarize failed", "session_id", c.sessionID, "error", err)
		} else if summary != "" {
			state.AutoSummary = summary
		}
	}

	doc, err := c.generatePRD(ctx)
	if err != nil {
		c.logger.Error("prd generation failed", "session_id", c.sessionID, "error", err)
		response := fmt.Sprintf("Error: %s\n\nTry again?", err)
		return TurnResult{Response: response, Suggestions: []domain.Suggestion{}}
	}

	state.PRD = doc
	state.Step = domain.StepDone

	response := fmt.Sprintf("Done. **%s** ready.\n\n%d tasks. PRD is below.\n\n", doc.ProjectName, doc.TotalTasks())
	return TurnResult{
		Response:    response,
		Suggestions: []domain.Suggestion{},
		PRDPreview:  prd.FormatDisplay(doc, true),
	}
}

func (c *Controller) generatePRD(ctx context.Context) (domain.PRD, error) {
	if c.engine == nil {
		return domain.PRD{}, fmt.Errorf("no PRD engine configured")
	}
	return c.engine.GeneratePRD(ctx, engine.GenerateRequest{
		ProjectName:   c.state.PRD.ProjectName,
		Description:   c.state.PRD.ProjectDescription,
		StarterPrompt: c.state.PRD.StarterPrompt,
		TechStack:     c.state.PRD.TechStack,
		TaskCount:     generatedTaskCount,
	})
}

// handleFallback acknowledges messages outside the state table, including
// anything said after the document is done.
func (c *Controller) handleFallback(ctx context.Context, message string) TurnResult {
	response := fmt.Sprintf("*listens intently* %s, I see. %s! Your PRD is being updated. %s",
		message, c.idiom(), c.computerRef())
	response = c.translator.Translate(ctx, response, c.state.Language)
	return TurnResult{Response: response, Suggestions: []domain.Suggestion{}, PRDPreview: c.preview()}
}

// appendFeatureTask adds one more core task for late-arriving feature
// content. Ids continue the CORE-1xx sequence from the current task count.
func (c *Controller) appendFeatureTask(message string) {
	core := &c.state.PRD.Phases.Core
	title := truncateRunes(message, 50)
	if utf8.RuneCountInString(message) > 50 {
		title += "..."
	}
	core.Tasks = append(core.Tasks, domain.Task{
		ID:          fmt.Sprintf("CORE-%d", len(core.Tasks)+100),
		Title:       title,
		Description: message,
		File:        "core.py",
		Priority:    domain.PriorityHigh,
	})
}

// looksLikeFeature is the stay-in-state guard: keyword hit plus enough
// length to be a real description rather than a short answer.
func looksLikeFeature(message string, keywords []string) bool {
	if utf8.RuneCountInString(message) <= featureMinChars {
		return false
	}
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (c *Controller) pickTemplate(set []responseTemplate) string {
	tpl := set[c.chooser.Intn(len(set))]
	return tpl(templateVars{
		Salutation:  c.salutation(),
		Idiom:       c.idiom(),
		ComputerRef: c.computerRef(),
		TotalTasks:  c.state.PRD.TotalTasks(),
	})
}

func (c *Controller) salutation() string { return c.state.Gender.Salutation() }

func (c *Controller) idiom() string {
	return ralphIdioms[c.chooser.Intn(len(ralphIdioms))]
}

func (c *Controller) computerRef() string {
	return computerRefs[c.chooser.Intn(len(computerRefs))]
}

// preview renders the current document as the compressed display block. The
// codec never mutates the document.
func (c *Controller) preview() string {
	return prd.FormatDisplay(c.state.PRD, true)
}

func githubSetupTasks() []domain.Task {
	return []domain.Task{
		{ID: "GH-001", Title: "Initialize Git repository", Description: "Create git repo and initial commit", File: "terminal", Priority: domain.PriorityHigh},
		{ID: "GH-002", Title: "Create GitHub repository", Description: "Set up GitHub repo with README and .gitignore", File: "github.com", Priority: domain.PriorityHigh},
		{ID: "GH-003", Title: "Configure GitHub Actions", Description: "Set up CI/CD pipeline for automated testing", File: ".github/workflows/", Priority: domain.PriorityMedium},
	}
}

// inferProjectName takes the first three purely alphabetic words of the
// purpose, capitalized, falling back to "My Project".
func inferProjectName(purpose string) string {
	words := strings.Fields(purpose)
	if len(words) > 3 {
		words = words[:3]
	}

	var kept []string
	for _, w := range words {
		if isAlpha(w) {
			kept = append(kept, capitalize(w))
		}
	}
	if len(kept) == 0 {
		return "My Project"
	}
	return strings.Join(kept, " ")
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spigell/fl-bidder/internal/freelancer"
	"github.com/spigell/fl-bidder/internal/retry"
	"github.com/spigell/fl-bidder/internal/utils"
)

const (
	// NoRecommendation is returned by RecommendTerms for projects that are not fixed price.
	NoRecommendation = "None"

	matchVerdict        = "MATCH"
	defaultMaxLogLength = 200
	defaultSignature    = "The Team"
)

var (
	//go:embed prompts/match.md
	matchTemplate string
	//go:embed prompts/analysis.md
	analysisTemplate string
	//go:embed prompts/draft.md
	draftTemplate string
	//go:embed prompts/service_offerings.md
	defaultServiceOfferings string
	//go:embed prompts/writing_style.md
	defaultWritingStyle string

	thinkTags = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

// Completer is a language model answering a system plus user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Component is a base unit of work with a reference budget and timeline used
// to anchor budget recommendations.
type Component struct {
	Name     string
	Budget   int
	Timeline int
}

var DefaultComponents = []Component{
	{Name: "website_design_development", Budget: 1500, Timeline: 14},
	{Name: "website_development_only", Budget: 850, Timeline: 12},
	{Name: "logo_design", Budget: 50, Timeline: 2},
	{Name: "custom_artwork", Budget: 120, Timeline: 2},
	{Name: "ecommerce_development", Budget: 1750, Timeline: 20},
	{Name: "ui_ux_design", Budget: 350, Timeline: 7},
	{Name: "vector_illustration", Budget: 150, Timeline: 5},
}

// Templates configure the prompts. Empty fields fall back to built-in defaults.
type Templates struct {
	ServiceOfferings string
	WritingStyle     string
	PortfolioLinks   string
	Signature        string
	Components       []Component
}

// Assistant asks the language model to judge, price and draft bids for projects.
type Assistant struct {
	completer Completer
	templates Templates
	policy    retry.Policy
	logger    *zap.Logger
	maxLogLen int
}

func NewAssistant(completer Completer, templates Templates, policy retry.Policy, logger *zap.Logger, maxLogLength int) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Assistant{
		completer: completer,
		templates: templates.withDefaults(),
		policy:    policy,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Match reports whether the project fits the configured service offerings.
func (a *Assistant) Match(ctx context.Context, project *freelancer.Project) (bool, error) {
	system := strings.ReplaceAll(matchTemplate, "{{SERVICE_OFFERINGS}}", a.templates.ServiceOfferings)
	user := fmt.Sprintf("Project Title: %s\nProject Description: %s\nMinimum Budget: %s\nMaximum Budget: %s\n",
		project.Title, project.Description,
		formatAmount(project.Budget.Minimum), formatAmount(project.Budget.Maximum),
	)

	answer, err := a.complete(ctx, "match project", project.ID, system, user)
	if err != nil {
		return false, err
	}

	return IsMatch(answer), nil
}

// RecommendTerms asks for a budget and deadline in the form
// "Budget: <int> USD, Deadline: <int> days". Projects that are not fixed price
// get NoRecommendation without a model call.
func (a *Assistant) RecommendTerms(ctx context.Context, project *freelancer.Project) (string, error) {
	if !project.IsFixed() {
		return NoRecommendation, nil
	}

	rate := project.Currency.ExchangeRate
	system := strings.ReplaceAll(analysisTemplate, "{{COMPONENTS}}", componentsText(a.templates.Components))
	user := fmt.Sprintf("Project Title: %s\nProject Description: %s\nMinimum Budget: %s\nMaximum Budget: %s\n"+
		"OUTPUT SHOULD ONLY BE IN THE FORMAT 'Budget: <budget> USD, Deadline: <days> days'. DO NOT INCLUDE ANY EXTRA TEXT. "+
		"KEEP THIS IN MIND: BUDGET SHOULD ALWAYS BE GREATER THAN THE CLIENT'S MINIMUM BUDGET.",
		project.Title, project.Description,
		formatAmount(project.Budget.Minimum*rate), formatAmount(project.Budget.Maximum*rate),
	)

	return a.complete(ctx, "recommend terms", project.ID, system, user)
}

// DraftProposal writes the bid text for the project.
func (a *Assistant) DraftProposal(ctx context.Context, project *freelancer.Project) (string, error) {
	style := strings.ReplaceAll(a.templates.WritingStyle, "{{SIGNATURE}}", a.templates.Signature)
	system := strings.ReplaceAll(draftTemplate, "{{WRITING_STYLE}}", style)
	system = strings.ReplaceAll(system, "{{PORTFOLIO_LINKS}}", a.templates.PortfolioLinks)
	user := fmt.Sprintf("Project Title: %s\nProject Description: %s\n", project.Title, project.Description)

	draft, err := a.complete(ctx, "draft proposal", project.ID, system, user)
	if err != nil {
		return "", err
	}
	if draft == "" {
		return "", errors.New("language model returned an empty proposal")
	}

	return draft, nil
}

func (a *Assistant) complete(ctx context.Context, op string, projectID int64, system, user string) (string, error) {
	return retry.Do(ctx, a.logger, op, a.policy, func(ctx context.Context) (string, error) {
		a.logger.Debug("completion request",
			zap.String("operation", op),
			zap.Int64("project_id", projectID),
			zap.Int("prompt_length", utf8.RuneCountInString(system)+utf8.RuneCountInString(user)),
			zap.String("prompt_preview", utils.TruncateForLog(user, a.maxLogLen)),
		)

		raw, err := a.completer.Complete(ctx, system, user)
		if err != nil {
			return "", err
		}

		a.logger.Debug("completion response",
			zap.String("operation", op),
			zap.Int64("project_id", projectID),
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
		)

		return StripThinking(raw), nil
	})
}

// StripThinking removes <think> blocks some models emit and trims the rest.
func StripThinking(raw string) string {
	return strings.TrimSpace(thinkTags.ReplaceAllString(raw, ""))
}

// IsMatch interprets a match verdict. Anything but MATCH is a rejection.
func IsMatch(answer string) bool {
	verdict := strings.Trim(StripThinking(answer), " \t\r\n\"'.`")
	return strings.EqualFold(verdict, matchVerdict)
}

func (t Templates) withDefaults() Templates {
	if strings.TrimSpace(t.ServiceOfferings) == "" {
		t.ServiceOfferings = defaultServiceOfferings
	}
	if strings.TrimSpace(t.WritingStyle) == "" {
		t.WritingStyle = defaultWritingStyle
	}
	if strings.TrimSpace(t.Signature) == "" {
		t.Signature = defaultSignature
	}
	if len(t.Components) == 0 {
		t.Components = DefaultComponents
	}
	t.ServiceOfferings = strings.TrimSpace(t.ServiceOfferings)
	t.WritingStyle = strings.TrimSpace(t.WritingStyle)
	t.PortfolioLinks = strings.TrimSpace(t.PortfolioLinks)
	return t
}

func componentsText(components []Component) string {
	title := cases.Title(language.English)
	lines := make([]string, 0, len(components))
	for _, c := range components {
		name := title.String(strings.ReplaceAll(c.Name, "_", " "))
		lines = append(lines, fmt.Sprintf("- %s: $%d, %d days", name, c.Budget, c.Timeline))
	}
	return strings.Join(lines, "\n")
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"devsync/models"

	"github.com/go-resty/resty/v2"
)

// HTTPSummarizer posts prompts to a completion endpoint.
type HTTPSummarizer struct {
	endpoint string
	client   *resty.Client
}

func NewHTTPSummarizer(endpoint, apiKey string) *HTTPSummarizer {
	client := resty.New().
		SetTimeout(60*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTPSummarizer{endpoint: endpoint, client: client}
}

type completionRequest struct {
	Kind   string `json:"kind"`
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Text string `json:"text"`
}

func (s *HTTPSummarizer) complete(ctx context.Context, kind models.AIJobKind, prompt string) (string, error) {
	var out completionResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(completionRequest{Kind: string(kind), Prompt: prompt}).
		SetResult(&out).
		Post(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("summarizer request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("summarizer returned %s", resp.Status())
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", errors.New("summarizer returned empty text")
	}
	return text, nil
}

func (s *HTTPSummarizer) SummarizeStandup(ctx context.Context, standup *models.Standup) (string, error) {
	return s.complete(ctx, models.AIJobStandupSummary, StandupPrompt(standup))
}

func (s *HTTPSummarizer) ReviewCode(ctx context.Context, review *models.CodeReview) (string, error) {
	return s.complete(ctx, models.AIJobCodeReviewSuggest, ReviewPrompt(review))
}

func (s *HTTPSummarizer) AnalyzeTeam(ctx context.Context, activity *TeamActivity) (string, error) {
	return s.complete(ctx, models.AIJobTeamVibe, TeamPrompt(activity))
}

func (s *HTTPSummarizer) PlanFeature(ctx context.Context, plan *models.FeaturePlan) (string, error) {
	return s.complete(ctx, models.AIJobFeaturePlan, FeaturePrompt(plan))
}

func StandupPrompt(s *models.Standup) string {
	var b strings.Builder
	b.WriteString("Summarize this daily standup in two or three sentences and flag any risk.\n")
	fmt.Fprintf(&b, "Date: %s\nMood: %s\n", s.Date.Format(time.DateOnly), s.Mood)
	fmt.Fprintf(&b, "Yesterday: %s\nToday: %s\n", s.YesterdayWork, s.TodayPlan)
	if s.Blockers != "" {
		fmt.Fprintf(&b, "Blockers: %s\n", s.Blockers)
	}
	return b.String()
}

func ReviewPrompt(r *models.CodeReview) string {
	var b strings.Builder
	b.WriteString("Suggest code review focus points for this change request.\n")
	fmt.Fprintf(&b, "Title: %s\nDescription: %s\n", r.Title, r.Description)
	if r.GithubPRURL != "" {
		fmt.Fprintf(&b, "Pull request: %s\n", r.GithubPRURL)
	}
	return b.String()
}

func TeamPrompt(a *TeamActivity) string {
	var b strings.Builder
	b.WriteString("Describe this team's current vibe in a short paragraph and name anyone who may need support.\n")
	fmt.Fprintf(&b, "Team: %s\n", a.Team.Name)
	for _, m := range a.Members {
		if m.User == nil {
			continue
		}
		vibe := models.MoodGood
		if m.User.Profile != nil {
			vibe = m.User.Profile.CurrentVibe
		}
		fmt.Fprintf(&b, "Member %s (%s): vibe %s\n", m.User.Username, m.Role, vibe)
	}
	for _, s := range a.Standups {
		who := "someone"
		if s.Developer != nil {
			who = s.Developer.Username
		}
		fmt.Fprintf(&b, "Standup %s by %s, mood %s: %s", s.Date.Format(time.DateOnly), who, s.Mood, firstLine(s.TodayPlan))
		if s.Blockers != "" {
			fmt.Fprintf(&b, " (blocked: %s)", firstLine(s.Blockers))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func FeaturePrompt(p *models.FeaturePlan) string {
	var b strings.Builder
	b.WriteString("Turn this feature idea into an implementation plan with ordered steps, risks and an estimate.\n")
	if p.Project != nil {
		fmt.Fprintf(&b, "Project: %s\n", p.Project.Name)
	}
	fmt.Fprintf(&b, "Idea: %s\n", p.Idea)
	return b.String()
}

// TemplateSummarizer builds plain summaries without calling out. It backs
// deployments that have no AI endpoint configured.
type TemplateSummarizer struct{}

func (TemplateSummarizer) SummarizeStandup(_ context.Context, s *models.Standup) (string, error) {
	summary := fmt.Sprintf("Worked on: %s. Planned: %s.", firstLine(s.YesterdayWork), firstLine(s.TodayPlan))
	if s.Blockers != "" {
		summary += " Blocked by: " + firstLine(s.Blockers) + "."
	}
	if s.Mood == models.MoodStressed || s.Mood == models.MoodOverwhelmed {
		summary += fmt.Sprintf(" Mood is %s, consider checking in.", s.Mood)
	}
	return summary, nil
}

func (TemplateSummarizer) ReviewCode(_ context.Context, r *models.CodeReview) (string, error) {
	points := []string{
		"Check error handling on new code paths.",
		"Confirm tests cover the change described in \"" + r.Title + "\".",
	}
	if r.GithubPRURL == "" {
		points = append(points, "Link the pull request so reviewers can see the diff.")
	}
	return "- " + strings.Join(points, "\n- "), nil
}

func (TemplateSummarizer) AnalyzeTeam(_ context.Context, a *TeamActivity) (string, error) {
	var low, blocked int
	for _, s := range a.Standups {
		if s.Mood == models.MoodStressed || s.Mood == models.MoodOverwhelmed {
			low++
		}
		if s.Blockers != "" {
			blocked++
		}
	}
	summary := fmt.Sprintf("%s: %d members, %d standups in the last 7 days.", a.Team.Name, len(a.Members), len(a.Standups))
	switch {
	case len(a.Standups) == 0:
		summary += " No recent standups to judge the mood from."
	case low*2 > len(a.Standups):
		summary += fmt.Sprintf(" Morale looks low, %d report stress.", low)
	default:
		summary += " The team seems in good spirits."
	}
	if blocked > 0 {
		summary += fmt.Sprintf(" Blockers reported: %d.", blocked)
	}
	return summary, nil
}

func (TemplateSummarizer) PlanFeature(_ context.Context, p *models.FeaturePlan) (string, error) {
	board := "the project board"
	if p.Project != nil {
		board = "the " + p.Project.Name + " board"
	}
	steps := []string{
		"Scope: " + firstLine(p.Idea) + ".",
		"Break the work into tasks on " + board + ".",
		"Write tests for the new behaviour before wiring it in.",
		"Open a code review and assign a reviewer from the team.",
	}
	var b strings.Builder
	for i, step := range steps {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, step)
	}
	return b.String(), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, ".")
}

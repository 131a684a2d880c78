package correct

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"

	"noteaudit/core"
)

// systemPrompt frames the drafting task for the model.
const systemPrompt = "You are a psychotherapy documentation expert. " +
	"Create realistic, properly formatted treatment goals and return valid JSON."

// jsonObjectPattern salvages a JSON object from a response wrapped in prose
// or markdown fences.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// OpenAIGenerator drafts treatment goals through the OpenAI chat API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator for the given API key and model.
// baseURL optionally points at a compatible gateway.
func NewOpenAIGenerator(apiKey, baseURL, model string) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// goalsResponse is the JSON shape requested from the model.
type goalsResponse struct {
	Goals []struct {
		Statement string `json:"statement"`
		Objective string `json:"objective"`
		Modality  string `json:"modality"`
		Progress  string `json:"progress"`
	} `json:"goals"`
}

// GenerateGoals implements GoalGenerator. The context carries the hard
// timeout set by the correction engine.
func (g *OpenAIGenerator) GenerateGoals(ctx context.Context, req GoalRequest) ([]core.Goal, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrGenerationTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response choices", core.ErrGenerationFailed)
	}

	return parseGoals(resp.Choices[0].Message.Content)
}

// buildPrompt assembles a bounded prompt from the session context.
func buildPrompt(req GoalRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Draft %d additional psychotherapy treatment goal(s) for this client.\n\n", req.Needed)

	if len(req.Diagnoses) > 0 {
		b.WriteString("DIAGNOSES:\n")
		for _, d := range req.Diagnoses {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")
	}

	if len(req.ExistingGoals) > 0 {
		b.WriteString("EXISTING GOALS (new goals must address different issues):\n")
		for i, g := range req.ExistingGoals {
			fmt.Fprintf(&b, "Goal #%d: %q\n", i+1, g.Statement)
		}
		b.WriteString("\n")
	}

	if req.NoteExcerpt != "" {
		fmt.Fprintf(&b, "NOTE CONTEXT:\n%s\n\n", req.NoteExcerpt)
	}

	b.WriteString(`REQUIREMENTS:
- Goals are in the client's voice ("I want to ...")
- Objectives are measurable with a weekly frequency
- Modality lists evidence-based modalities (e.g. CBT, DBT, Motivational Interviewing)
- Progress reflects the client's current status

Return JSON only:
{"goals": [{"statement": "...", "objective": "...", "modality": "...", "progress": "..."}]}`)

	return b.String()
}

// parseGoals decodes the model response, salvaging embedded JSON when the
// model wraps it in prose.
func parseGoals(content string) ([]core.Goal, error) {
	var parsed goalsResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		match := jsonObjectPattern.FindString(content)
		if match == "" {
			return nil, fmt.Errorf("%w: response contains no JSON object", core.ErrGenerationFailed)
		}
		if err := json.Unmarshal([]byte(match), &parsed); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrGenerationFailed, err)
		}
	}

	if len(parsed.Goals) == 0 {
		return nil, fmt.Errorf("%w: response contains no goals", core.ErrGenerationFailed)
	}

	goals := make([]core.Goal, 0, len(parsed.Goals))
	for _, g := range parsed.Goals {
		goals = append(goals, core.Goal{
			Statement: strings.TrimSpace(g.Statement),
			Objective: strings.TrimSpace(g.Objective),
			Modality:  strings.TrimSpace(g.Modality),
			Progress:  strings.TrimSpace(g.Progress),
		})
	}
	return goals, nil
}

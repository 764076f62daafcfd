package collaborator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-scholarmatch-be/internal/constant"
	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/pkg/llm"
	"ai-scholarmatch-be/pkg/stage"
)

// Derive asks the model for the weighted criteria set plus presentation
// hints. Weight validation happens in the engine; the envelope is returned
// as received.
func (c *LLMCollaborators) Derive(ctx context.Context, in stage.DeriveInput) (*stage.DeriveOutput, error) {
	prompt := fmt.Sprintf(constant.DeriveCriteriaPromptV1, in.CombinedText)
	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("criteria derivation: %w", err)
	}

	var parsed struct {
		Criteria  []entity.Criterion `json:"criteria"`
		Tone      string             `json:"tone"`
		GapPrompt string             `json:"gap_prompt"`
	}
	if err := unmarshalLLMJSON(response, &parsed); err != nil {
		return nil, fmt.Errorf("criteria derivation: %w", err)
	}

	return &stage.DeriveOutput{
		Criteria:  parsed.Criteria,
		Tone:      parsed.Tone,
		GapPrompt: parsed.GapPrompt,
	}, nil
}

func (c *LLMCollaborators) AskQuestion(ctx context.Context, in stage.AskQuestionInput) (*stage.AskQuestionOutput, error) {
	prompt := fmt.Sprintf(constant.GapQuestionPromptV1,
		in.Profile.Name, strings.Join(in.Gaps, ", "), in.GapPrompt)
	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.6))
	if err != nil {
		return nil, fmt.Errorf("gap question: %w", err)
	}

	question := strings.TrimSpace(response)
	if question == "" {
		return nil, fmt.Errorf("gap question: empty response")
	}
	return &stage.AskQuestionOutput{QuestionText: question}, nil
}

func (c *LLMCollaborators) GeneratePoints(ctx context.Context, in stage.GeneratePointsInput) (*stage.GeneratePointsOutput, error) {
	prompt := fmt.Sprintf(constant.TalkingPointsPromptV1,
		in.Profile.Name, formatCriteria(in.Criteria), formatScores(in.Match.PerCriterion))
	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.5))
	if err != nil {
		return nil, fmt.Errorf("talking points: %w", err)
	}

	var parsed struct {
		Points []string `json:"points"`
	}
	if err := unmarshalLLMJSON(response, &parsed); err != nil {
		return nil, fmt.Errorf("talking points: %w", err)
	}
	if len(parsed.Points) == 0 {
		return nil, fmt.Errorf("talking points: empty response")
	}
	return &stage.GeneratePointsOutput{Points: parsed.Points}, nil
}

func (c *LLMCollaborators) GenerateEssay(ctx context.Context, in stage.GenerateEssayInput) (*stage.GenerateEssayOutput, error) {
	var answers strings.Builder
	if len(in.ExternalInput) > 0 {
		answers.WriteString("The applicant supplied these additional answers:\n")
		for question, answer := range in.ExternalInput {
			answers.WriteString(fmt.Sprintf("Q: %s\nA: %s\n", question, answer))
		}
	}

	prompt := fmt.Sprintf(constant.EssayPromptV1,
		in.Profile.Name, in.Tone, formatCriteria(in.Criteria), in.PersonalText, answers.String())
	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("essay generation: %w", err)
	}

	var parsed struct {
		Content string `json:"content"`
		Notes   string `json:"notes"`
	}
	if err := unmarshalLLMJSON(response, &parsed); err != nil {
		return nil, fmt.Errorf("essay generation: %w", err)
	}
	if parsed.Content == "" {
		return nil, fmt.Errorf("essay generation: empty content")
	}

	return &stage.GenerateEssayOutput{Essay: entity.EssayDraft{
		Content: parsed.Content,
		Notes:   parsed.Notes,
		Length:  len(strings.Fields(parsed.Content)),
	}}, nil
}

func formatCriteria(criteria []entity.Criterion) string {
	var sb strings.Builder
	for _, criterion := range criteria {
		sb.WriteString(fmt.Sprintf("- %s (weight %.2f): %s\n",
			criterion.Name, criterion.Weight, criterion.Description))
	}
	return sb.String()
}

func formatScores(scores []entity.CriterionScore) string {
	var sb strings.Builder
	for _, score := range scores {
		sb.WriteString(fmt.Sprintf("- %s: %.2f\n", score.Name, score.BestMatchScore))
	}
	return sb.String()
}

// unmarshalLLMJSON strips code fences and surrounding prose before
// decoding; models wrap JSON even when told not to.
func unmarshalLLMJSON(response string, target interface{}) error {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	jsonStart := strings.Index(cleaned, "{")
	jsonEnd := strings.LastIndex(cleaned, "}")
	if jsonStart >= 0 && jsonEnd > jsonStart {
		cleaned = cleaned[jsonStart : jsonEnd+1]
	}

	if err := json.Unmarshal([]byte(cleaned), target); err != nil {
		return fmt.Errorf("malformed model output: %w", err)
	}
	return nil
}

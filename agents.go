package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const minContentMaxTokens = 2000

//go:embed config/planner-system-prompt.md
var plannerSystemPrompt string

//go:embed config/planner-output-schema.json
var plannerSchema string

// PostMetadata represents the metadata returned by the planner agent
type PostMetadata struct {
	Tags    []string `json:"tags"`
	Summary string   `json:"summary"`
}

// AgentPlanner asks Claude for the tags and summary of an imported post
type AgentPlanner struct {
	apiKey   string
	category string
	settings AgentSettings
}

// NewAgentPlanner creates a planner for posts filed under category
func NewAgentPlanner(apiKey, category string, settings AgentSettings) (*AgentPlanner, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key required: use --api-key flag or ANTHROPIC_API_KEY environment variable")
	}

	if settings.ContentMaxTokens < minContentMaxTokens {
		logger.Warn().
			Int("content_max_tokens", settings.ContentMaxTokens).
			Int("minimum", minContentMaxTokens).
			Msg("planner content_max_tokens below minimum, using minimum")
		settings.ContentMaxTokens = minContentMaxTokens
	}

	return &AgentPlanner{apiKey: apiKey, category: category, settings: settings}, nil
}

// PlanMetadata generates tags and summary using structured output
func (ap *AgentPlanner) PlanMetadata(slug, markdown string) (*PostMetadata, error) {
	systemPrompt, userPrompt, err := ap.buildPrompts(slug, markdown)
	if err != nil {
		return nil, err
	}

	settings := types.RequestSettings{
		Model:       ap.settings.Model,
		MaxTokens:   ap.settings.MaxTokens,
		Temperature: ap.settings.Temperature,
	}
	response, err := anthropic.PromptWithSettings(systemPrompt, userPrompt, strings.TrimSpace(plannerSchema), ap.apiKey, settings)
	if err != nil {
		return nil, fmt.Errorf("planner agent failed: %w", err)
	}

	if len(response.Content) == 0 {
		return nil, fmt.Errorf("no content in planner response")
	}

	meta, err := parsePlannerResponse(response.Content[0].Text)
	if err != nil {
		return nil, err
	}

	logger.Info().Strs("tags", meta.Tags).Str("summary", meta.Summary).Msg("✓ Planned")
	return meta, nil
}

func (ap *AgentPlanner) buildPrompts(slug, markdown string) (string, string, error) {
	if !strings.Contains(plannerSystemPrompt, "{{.category}}") {
		return "", "", fmt.Errorf("planner system prompt template must contain {{.category}} variable")
	}
	systemPrompt := strings.ReplaceAll(strings.TrimSpace(plannerSystemPrompt), "{{.category}}", ap.category)

	content := limitContentTokens(markdown, ap.settings.ContentMaxTokens)
	userPrompt := fmt.Sprintf("Post slug: %s\n\nPost content:\n%s", slug, content)
	return systemPrompt, userPrompt, nil
}

func parsePlannerResponse(text string) (*PostMetadata, error) {
	var meta PostMetadata
	if err := json.Unmarshal([]byte(text), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse planner structured response: %w", err)
	}

	tags := meta.Tags[:0]
	for _, tag := range meta.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	meta.Tags = tags
	meta.Summary = strings.TrimSpace(meta.Summary)
	return &meta, nil
}

// limitContentTokens limits content to approximately N tokens (using 4 chars ≈ 1 token)
func limitContentTokens(content string, maxTokens int) string {
	maxChars := maxTokens * 4
	if len(content) <= maxChars {
		return content
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}

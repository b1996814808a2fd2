// Package capability provides the OpenAI implementation of the text capability.
package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/contentlabs/sift/internal/config"
	"github.com/contentlabs/sift/internal/models"
)

const detectSystemPrompt = `You are an expert at identifying machine-generated text. Analyze the submitted text for signals of AI authorship.

Consider:
1. Repetitive phrasing and formulaic sentence structure
2. Unnaturally even tone and hedging
3. Generic word choice lacking personal voice
4. Statistical smoothness atypical of human writing

Respond with a JSON object:
{
  "ai_probability": 0.0-1.0,
  "reasoning": "Brief explanation of your assessment"
}

ai_probability is the probability that the text was machine-generated.
Only respond with the JSON object, no other text.`

// OpenAIDetector implements the text capability using the OpenAI API.
type OpenAIDetector struct {
	client *openai.Client
	model  string
}

// NewOpenAIDetector creates a new OpenAI-backed text detector.
func NewOpenAIDetector(cfg *config.CapabilityConfig) (*OpenAIDetector, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIDetector{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
	}, nil
}

// Name returns the capability name.
func (d *OpenAIDetector) Name() string {
	return "openai"
}

// Kind returns the content kind this capability handles.
func (d *OpenAIDetector) Kind() models.ContentKind {
	return models.KindText
}

// Invoke asks the model for an AI-authorship verdict on the given text.
func (d *OpenAIDetector) Invoke(ctx context.Context, in Input) (*RawOutput, error) {
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: detectSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Text to analyze:\n\n" + in.Text},
		},
		MaxTokens:   1024,
		Temperature: 0,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, models.NewTimeout(err)
		}
		return nil, models.NewUnavailable(fmt.Errorf("OpenAI completion failed: %w", err))
	}

	if len(resp.Choices) == 0 {
		return nil, models.NewMalformed(fmt.Errorf("OpenAI returned no choices"))
	}

	verdict, err := parseTextVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, models.NewMalformed(err)
	}

	return &RawOutput{
		Kind:  models.KindText,
		Model: d.model,
		Text:  verdict,
	}, nil
}

type textVerdict struct {
	Probability *float64 `json:"ai_probability"`
	Reasoning   string   `json:"reasoning"`
}

// parseTextVerdict extracts the verdict JSON from a model response.
func parseTextVerdict(response string) (*TextRaw, error) {
	response = strings.TrimSpace(response)

	// Handle markdown code blocks
	if strings.HasPrefix(response, "```") {
		re := regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
		matches := re.FindStringSubmatch(response)
		if len(matches) > 1 {
			response = matches[1]
		}
	}

	var verdict textVerdict
	if err := json.Unmarshal([]byte(response), &verdict); err != nil {
		// Try to find JSON object in response
		start := strings.Index(response, "{")
		end := strings.LastIndex(response, "}")
		if start >= 0 && end > start {
			response = response[start : end+1]
			if err := json.Unmarshal([]byte(response), &verdict); err != nil {
				return nil, fmt.Errorf("invalid JSON: %w", err)
			}
		} else {
			return nil, fmt.Errorf("no JSON found in response")
		}
	}

	if verdict.Probability == nil {
		return nil, fmt.Errorf("response is missing ai_probability")
	}

	return &TextRaw{
		Probability: *verdict.Probability,
		Reasoning:   verdict.Reasoning,
	}, nil
}

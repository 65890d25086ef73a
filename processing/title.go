package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// MaxTitleLength bounds generated publish titles.
const MaxTitleLength = 100

// TitleWriter rewrites a discovered title into a caption for a target platform.
type TitleWriter interface {
	Rewrite(ctx context.Context, title, niche, platform string) (string, error)
}

// TitleResponse represents the JSON response from OpenAI
type TitleResponse struct {
	Title string `json:"title" jsonschema_description:"A short, engaging caption for the re-posted video"`
}

// GenerateSchema generates a JSON schema for structured outputs
func GenerateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

var titleResponseSchema = GenerateSchema[TitleResponse]()

// OpenAITitleWriter asks a chat model for a platform caption.
type OpenAITitleWriter struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAITitleWriter returns nil when apiKey is empty so callers can skip rewriting.
func NewOpenAITitleWriter(apiKey string) *OpenAITitleWriter {
	if apiKey == "" {
		return nil
	}
	return &OpenAITitleWriter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT4oMini,
	}
}

// Rewrite generates a new caption for title.
func (w *OpenAITitleWriter) Rewrite(ctx context.Context, title, niche, platform string) (string, error) {
	if w == nil {
		return "", fmt.Errorf("title writer not configured")
	}
	prompt := buildTitlePrompt(title, niche, platform)

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "post_title",
		Description: openai.String("A caption for a short-form video post"),
		Schema:      titleResponseSchema,
		Strict:      openai.Bool(true),
	}

	chatCompletion, err := w.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: w.model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	raw := chatCompletion.Choices[0].Message.Content
	if raw == "" {
		return "", fmt.Errorf("OpenAI returned empty response. Finish reason: %s", chatCompletion.Choices[0].FinishReason)
	}
	return ParseTitleResponse(raw)
}

// ParseTitleResponse extracts and trims the title from a structured response.
func ParseTitleResponse(raw string) (string, error) {
	var resp TitleResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI JSON response: %w", err)
	}
	title := strings.TrimSpace(resp.Title)
	if title == "" {
		return "", fmt.Errorf("OpenAI returned empty title")
	}
	if r := []rune(title); len(r) > MaxTitleLength {
		title = strings.TrimSpace(string(r[:MaxTitleLength]))
	}
	return title, nil
}

func buildTitlePrompt(title, niche, platform string) string {
	if niche == "" {
		niche = "general"
	}
	return fmt.Sprintf(`You are writing the caption for a short vertical video that will be posted on %s.

Original title: %s
Niche: %s

Write a new caption that:
- Keeps the topic of the original title
- Is catchy and engaging for the %s audience
- Contains no hashtags or links
- Is under %d characters

Respond in JSON format with this structure:
{
  "title": "your caption here"
}`, platform, title, niche, platform, MaxTitleLength)
}

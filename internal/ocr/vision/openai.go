package vision

import (
	"context"
	"encoding/base64"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEngine transcribes images with an OpenAI-compatible vision model
type OpenAIEngine struct {
	client *openai.Client
	model  string
}

// NewOpenAIEngine creates an engine; baseURL may be empty for api.openai.com
func NewOpenAIEngine(apiKey, baseURL, model string) *OpenAIEngine {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIEngine{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (e *OpenAIEngine) Name() string { return "openai" }

// Recognize sends the PNG as a data URL together with the transcription prompt
func (e *OpenAIEngine) Recognize(ctx context.Context, png []byte) (string, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: transcriptionPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "openai chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("openai returned no choices")
	}
	return cleanResponse(resp.Choices[0].Message.Content), nil
}

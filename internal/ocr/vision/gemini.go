package vision

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"google.golang.org/api/option"
)

// GeminiEngine transcribes images with a Gemini model.
// A client is opened per call so the engine holds no connections between requests.
type GeminiEngine struct {
	apiKey string
	model  string
}

// NewGeminiEngine creates a Gemini-backed engine
func NewGeminiEngine(apiKey, model string) *GeminiEngine {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiEngine{apiKey: apiKey, model: model}
}

func (e *GeminiEngine) Name() string { return "gemini" }

// Recognize sends the image and the transcription prompt in one request
func (e *GeminiEngine) Recognize(ctx context.Context, png []byte) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(e.apiKey))
	if err != nil {
		return "", eris.Wrap(err, "gemini client")
	}
	defer client.Close()

	model := client.GenerativeModel(e.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.ImageData("png", png), genai.Text(transcriptionPrompt))
	if err != nil {
		return "", eris.Wrap(err, "gemini generate content")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", eris.New("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return cleanResponse(sb.String()), nil
}

// Package vision recognizes text with multimodal AI models.
// The models are asked for a literal transcription, never for interpretation.
package vision

import "strings"

// transcriptionPrompt asks the model to behave like an OCR engine
const transcriptionPrompt = `You are an OCR engine. Transcribe ALL text visible in this image exactly as written.

Rules:
1. Preserve the reading order: top to bottom, left to right.
2. Keep line breaks where the document has them. Separate blocks with one empty line.
3. Do NOT translate, summarize, correct spelling or add commentary.
4. Do NOT wrap the answer in markdown or code fences.
5. If the image contains no readable text, answer with an empty response.`

// cleanResponse strips code fences some models add despite the prompt
func cleanResponse(response string) string {
	cleaned := strings.TrimSpace(response)
	backticks := "```"
	if strings.HasPrefix(cleaned, backticks) {
		cleaned = strings.TrimPrefix(cleaned, backticks)
		// drop an optional language tag on the opening fence
		if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 && !strings.ContainsAny(cleaned[:nl], " \t") {
			cleaned = cleaned[nl+1:]
		}
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), backticks)
	}
	return strings.TrimSpace(cleaned)
}

package ai

import "context"

// TextGenerator generates text from a system prompt and user prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Transcriber converts recorded speech to text. The format is the audio
// container extension without a dot, e.g. "ogg".
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}

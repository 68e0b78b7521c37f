package translation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"lingoroom/backend/internal/language"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider on the OpenAI API: chat completions
// for translation, the TTS endpoint for speech.
type OpenAIProvider struct {
	client    *openai.Client
	chatModel string
	ttsModel  string
	voice     string
	speed     float64
}

func NewOpenAIProvider(apiKey, chatModel, ttsModel, voice string, speed float64) *OpenAIProvider {
	return &OpenAIProvider{
		client:    openai.NewClient(apiKey),
		chatModel: chatModel,
		ttsModel:  ttsModel,
		voice:     voice,
		speed:     speed,
	}
}

// Translate asks the model for all target languages in one request and
// parses the "Language: translation" lines it returns. Languages the model
// skipped are simply absent from the map; the engine copes.
func (p *OpenAIProvider) Translate(ctx context.Context, text, sourceLang string, targetLangs []string) (map[string]string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text, sourceLang, targetLangs)},
		},
		MaxTokens:   500,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	return parseTranslations(resp.Choices[0].Message.Content, targetLangs), nil
}

func buildPrompt(text, sourceLang string, targetLangs []string) string {
	names := make([]string, 0, len(targetLangs))
	lines := make([]string, 0, len(targetLangs))
	for _, lang := range targetLangs {
		names = append(names, language.Name(lang))
		lines = append(lines, language.Name(lang)+": [translation]")
	}

	return fmt.Sprintf(
		"Translate this %s text into %s.\n\nProvide only the translations, one per line:\n%s\n\nText: %s",
		language.Name(sourceLang), strings.Join(names, ", "), strings.Join(lines, "\n"), text)
}

func parseTranslations(content string, targetLangs []string) map[string]string {
	requested := make(map[string]bool, len(targetLangs))
	for _, lang := range targetLangs {
		requested[lang] = true
	}

	translations := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		name, translated, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		code, known := language.CodeByName(strings.TrimSpace(name))
		if known && requested[code] {
			translations[code] = strings.TrimSpace(translated)
		}
	}
	return translations
}

// Transcribe sends recorded audio to the Whisper endpoint.
func (p *OpenAIProvider) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// Synthesize calls the TTS endpoint and returns the raw opus audio.
func (p *OpenAIProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.ttsModel),
		Input:          text,
		Voice:          openai.SpeechVoice(p.voice),
		ResponseFormat: openai.SpeechResponseFormatOpus,
		Speed:          p.speed,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	return io.ReadAll(resp)
}

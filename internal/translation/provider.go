package translation

import "context"

// Provider is the upstream translation and speech service. Translate may
// return a partial map (some requested languages missing); the engine
// accepts what is there. Any returned error is treated as transient and
// retried by the engine's backoff loop.
type Provider interface {
	// Translate renders text from sourceLang into each of targetLangs and
	// returns a map of language code to translation.
	Translate(ctx context.Context, text, sourceLang string, targetLangs []string) (map[string]string, error)

	// Synthesize converts text to speech and returns opaque audio bytes.
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// Transcribe converts recorded speech to text. The filename hints the
	// audio container format to the upstream service.
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

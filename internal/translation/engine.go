package translation

import (
	"context"
	"log"
	"math"
	"time"

	"lingoroom/backend/internal/config"
)

// Engine translates one text into a set of target languages, consulting
// the cache per target and batching every cache miss into a single
// upstream call.
type Engine struct {
	Provider Provider
	Cache    Cache
	Speech   *SpeechCache

	MaxRetries  int
	BackoffBase float64
	Timeout     time.Duration

	// Voice and Speed identify the synthesis settings; they are part of the
	// speech cache key.
	Voice        string
	Speed        float64
	MaxSpeechLen int

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

func NewEngine(provider Provider, cache Cache, speech *SpeechCache) *Engine {
	return &Engine{
		Provider:     provider,
		Cache:        cache,
		Speech:       speech,
		MaxRetries:   config.TranslationMaxRetries,
		BackoffBase:  config.TranslationBackoffBase,
		Timeout:      config.TranslationTimeout,
		Voice:        config.TTSVoice,
		Speed:        config.TTSSpeed,
		MaxSpeechLen: config.TTSMaxCharacters,
		sleep:        time.Sleep,
	}
}

// Translate returns a map of target language to translation. The source
// language is removed from the targets; remaining targets are partitioned
// into cache hits and misses, and only the miss set goes upstream, in one
// call. A partial upstream response is accepted: present languages are
// cached and returned, absent ones are dropped. When retries exhaust, the
// hit partition is still returned — a missing language means "translation
// unavailable for that member", never a hard error.
func (e *Engine) Translate(ctx context.Context, text, sourceLang string, targetLangs []string) map[string]string {
	result := make(map[string]string)

	var miss []string
	seen := map[string]bool{sourceLang: true}
	for _, lang := range targetLangs {
		if seen[lang] {
			continue
		}
		seen[lang] = true

		if cached, ok := e.Cache.Get(CacheKey(text, sourceLang, lang)); ok {
			result[lang] = cached
		} else {
			miss = append(miss, lang)
		}
	}
	if len(miss) == 0 {
		return result
	}

	for attempt := 0; attempt < e.MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.Timeout)
		translations, err := e.Provider.Translate(callCtx, text, sourceLang, miss)
		cancel()

		if err != nil {
			log.Printf("ERROR: Translation attempt %d failed: %v", attempt+1, err)
			if attempt < e.MaxRetries-1 {
				e.sleep(e.backoff(attempt))
			}
			continue
		}

		for _, lang := range miss {
			if translated, ok := translations[lang]; ok {
				e.Cache.Set(CacheKey(text, sourceLang, lang), translated)
				result[lang] = translated
			}
		}
		return result
	}

	log.Printf("ERROR: Translation retries exhausted for %d languages", len(miss))
	return result
}

// backoff is base^attempt seconds.
func (e *Engine) backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(e.BackoffBase, float64(attempt)) * float64(time.Second))
}

// SynthesizeSpeech converts text to audio, best effort: over-long texts and
// provider failures yield (nil, false) rather than an error, because voice
// is an enhancement and must never block message delivery. The returned
// bytes are the caller's own copy.
func (e *Engine) SynthesizeSpeech(ctx context.Context, text string) ([]byte, bool) {
	if len([]rune(text)) > e.MaxSpeechLen {
		return nil, false
	}

	if audio, ok := e.Speech.Get(text, e.Voice, e.Speed); ok {
		return audio, true
	}

	callCtx, cancel := context.WithTimeout(ctx, config.TTSTimeout)
	defer cancel()

	audio, err := e.Provider.Synthesize(callCtx, text)
	if err != nil {
		log.Printf("ERROR: Speech synthesis failed: %v", err)
		return nil, false
	}

	if err := e.Speech.Set(text, e.Voice, e.Speed, audio); err != nil {
		log.Printf("WARN: Failed to persist speech cache entry: %v", err)
	}
	return audio, true
}

// Transcribe converts a recorded voice message to text.
func (e *Engine) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()
	return e.Provider.Transcribe(callCtx, filename, audio)
}

package translation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider records every upstream call and serves canned translations.
type fakeProvider struct {
	mu       sync.Mutex
	calls    [][]string
	failures int
	partial  bool
	audio    []byte
	audioErr error
}

func (p *fakeProvider) Translate(ctx context.Context, text, sourceLang string, targetLangs []string) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	langs := make([]string, len(targetLangs))
	copy(langs, targetLangs)
	p.calls = append(p.calls, langs)

	if p.failures > 0 {
		p.failures--
		return nil, errors.New("rate limited")
	}

	out := make(map[string]string)
	for i, lang := range targetLangs {
		if p.partial && i == 0 {
			continue
		}
		out[lang] = "[" + lang + "] " + text
	}
	return out, nil
}

func (p *fakeProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if p.audioErr != nil {
		return nil, p.audioErr
	}
	return p.audio, nil
}

func (p *fakeProvider) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	return "transcript", nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func newTestEngine(t *testing.T, provider Provider) *Engine {
	t.Helper()
	speech, err := NewSpeechCache(t.TempDir())
	require.NoError(t, err)

	e := NewEngine(provider, NewMemoryCache(100, time.Minute), speech)
	e.sleep = func(time.Duration) {} // no real backoff in tests
	return e
}

func TestTranslate_SourceRemovedFromTargets(t *testing.T) {
	provider := &fakeProvider{}
	e := newTestEngine(t, provider)

	result := e.Translate(context.Background(), "hello", "en", []string{"en"})

	assert.Empty(t, result)
	assert.Zero(t, provider.callCount(), "no upstream call when targets collapse to nothing")
}

func TestTranslate_SingleBatchedUpstreamCall(t *testing.T) {
	provider := &fakeProvider{}
	e := newTestEngine(t, provider)

	result := e.Translate(context.Background(), "hello", "en", []string{"ru", "th", "en"})

	require.Equal(t, 1, provider.callCount())
	assert.ElementsMatch(t, []string{"ru", "th"}, provider.calls[0])
	assert.Equal(t, "[ru] hello", result["ru"])
	assert.Equal(t, "[th] hello", result["th"])
}

// TestTranslate_CacheIdempotence checks that translating the same tuple
// twice within the TTL makes exactly one upstream call and returns an
// identical string the second time.
func TestTranslate_CacheIdempotence(t *testing.T) {
	provider := &fakeProvider{}
	e := newTestEngine(t, provider)

	first := e.Translate(context.Background(), "hello", "en", []string{"ru"})
	second := e.Translate(context.Background(), "hello", "en", []string{"ru"})

	assert.Equal(t, 1, provider.callCount())
	assert.Equal(t, first["ru"], second["ru"])
}

func TestTranslate_OnlyMissesGoUpstream(t *testing.T) {
	provider := &fakeProvider{}
	e := newTestEngine(t, provider)

	e.Translate(context.Background(), "hello", "en", []string{"ru"})
	e.Translate(context.Background(), "hello", "en", []string{"ru", "th"})

	require.Equal(t, 2, provider.callCount())
	assert.Equal(t, []string{"th"}, provider.calls[1], "cached ru must not be re-requested")
}

func TestTranslate_RetriesThenSucceeds(t *testing.T) {
	provider := &fakeProvider{failures: 2}
	e := newTestEngine(t, provider)

	result := e.Translate(context.Background(), "hello", "en", []string{"ru"})

	assert.Equal(t, 3, provider.callCount())
	assert.Equal(t, "[ru] hello", result["ru"])
}

func TestTranslate_RetriesExhaustedReturnsCachedHits(t *testing.T) {
	provider := &fakeProvider{}
	e := newTestEngine(t, provider)

	// Warm the cache for ru, then make every upstream call fail.
	e.Translate(context.Background(), "hello", "en", []string{"ru"})
	provider.failures = 100

	result := e.Translate(context.Background(), "hello", "en", []string{"ru", "th"})

	assert.Equal(t, "[ru] hello", result["ru"], "hit partition survives upstream failure")
	assert.NotContains(t, result, "th")
	assert.Equal(t, 1+e.MaxRetries, provider.callCount())
}

func TestTranslate_PartialResponseAccepted(t *testing.T) {
	provider := &fakeProvider{partial: true}
	e := newTestEngine(t, provider)

	result := e.Translate(context.Background(), "hello", "en", []string{"ru", "th"})

	// One language missing from the response is not retried; the present
	// one is returned and cached.
	assert.Equal(t, 1, provider.callCount())
	assert.Len(t, result, 1)
}

func TestTranslate_CacheKeyNormalization(t *testing.T) {
	provider := &fakeProvider{}
	e := newTestEngine(t, provider)

	e.Translate(context.Background(), "  Hello  ", "en", []string{"ru"})
	e.Translate(context.Background(), "hello", "en", []string{"ru"})

	assert.Equal(t, 1, provider.callCount(), "case and surrounding whitespace share one cache entry")
}

func TestBackoff(t *testing.T) {
	e := &Engine{BackoffBase: 2}

	assert.Equal(t, time.Second, e.backoff(0))
	assert.Equal(t, 2*time.Second, e.backoff(1))
	assert.Equal(t, 4*time.Second, e.backoff(2))
}

func TestSynthesizeSpeech_CachesOnDisk(t *testing.T) {
	provider := &fakeProvider{audio: []byte("opus-bytes")}
	speech, err := NewSpeechCache(t.TempDir())
	require.NoError(t, err)
	e := NewEngine(provider, NewMemoryCache(10, time.Minute), speech)

	audio, ok := e.SynthesizeSpeech(context.Background(), "hello")
	require.True(t, ok)
	assert.Equal(t, []byte("opus-bytes"), audio)

	// Second call must come from the persistent cache.
	provider.audioErr = errors.New("provider down")
	audio, ok = e.SynthesizeSpeech(context.Background(), "hello")
	require.True(t, ok)
	assert.Equal(t, []byte("opus-bytes"), audio)
}

func TestSynthesizeSpeech_BestEffort(t *testing.T) {
	provider := &fakeProvider{audioErr: errors.New("boom")}
	e := newTestEngine(t, provider)

	_, ok := e.SynthesizeSpeech(context.Background(), "hello")
	assert.False(t, ok, "provider failure yields no audio, not an error")

	long := make([]rune, e.MaxSpeechLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, ok = e.SynthesizeSpeech(context.Background(), string(long))
	assert.False(t, ok, "over-long text is skipped without calling the provider")
}

package translation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// SpeechCache persists synthesized audio on disk, keyed by a hash of
// (text, voice, speed). Unlike the translation cache it survives process
// restarts; TTS calls are the most expensive upstream operation.
type SpeechCache struct {
	dir string
}

func NewSpeechCache(dir string) (*SpeechCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create speech cache dir: %w", err)
	}
	return &SpeechCache{dir: dir}, nil
}

func speechKey(text, voice string, speed float64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\n%s\n%.2f", Normalize(text), voice, speed)))
	return hex.EncodeToString(sum[:])
}

func (c *SpeechCache) path(key string) string {
	return filepath.Join(c.dir, "tts_"+key+".ogg")
}

// Get returns the cached audio for the text, if present. The returned
// bytes are the caller's own copy.
func (c *SpeechCache) Get(text, voice string, speed float64) ([]byte, bool) {
	data, err := os.ReadFile(c.path(speechKey(text, voice, speed)))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set writes the audio to the cache directory.
func (c *SpeechCache) Set(text, voice string, speed float64, audio []byte) error {
	return os.WriteFile(c.path(speechKey(text, voice, speed)), audio, 0o644)
}

// Cleanup removes cache files older than maxAge and returns how many were
// deleted.
func (c *SpeechCache) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		log.Printf("WARN: Speech cache cleanup failed: %v", err)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(c.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed
}

package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"insight-stack/internal/models"
)

const trackerFile = "seen_insights.json"

// InsightTracker remembers which insights were already reported so repeated
// watch runs only surface new ones. Entries expire after maxAge.
type InsightTracker struct {
	filePath string
	seen     map[string]time.Time
	maxAge   time.Duration
	mu       sync.RWMutex
	now      func() time.Time
}

// TrackedInsight is the on-disk form of one entry.
type TrackedInsight struct {
	Key    string    `json:"key"`
	SeenAt time.Time `json:"seen_at"`
}

func NewInsightTracker(dataDir string, maxAge time.Duration) (*InsightTracker, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	t := &InsightTracker{
		filePath: filepath.Join(dataDir, trackerFile),
		seen:     make(map[string]time.Time),
		maxAge:   maxAge,
		now:      time.Now,
	}
	if err := t.load(); err != nil {
		return nil, fmt.Errorf("failed to load insight tracker data: %w", err)
	}
	t.cleanup()
	return t, nil
}

// InsightKey identifies an insight. Comment quotes are keyed by comment ID;
// everything else by video and normalized quote text.
func InsightKey(item models.AnalysisItem) string {
	if item.CommentID != nil && *item.CommentID != "" {
		return "comment:" + *item.CommentID
	}
	sum := sha1.Sum([]byte(strings.ToLower(strings.Join(strings.Fields(item.Quote), " "))))
	return "video:" + item.VideoID + ":" + hex.EncodeToString(sum[:8])
}

func (t *InsightTracker) IsSeen(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.seenLocked(key)
}

func (t *InsightTracker) seenLocked(key string) bool {
	at, ok := t.seen[key]
	return ok && t.now().Sub(at) < t.maxAge
}

// Unseen returns the items not reported within maxAge, keeping their order.
// Duplicates inside items count once.
func (t *InsightTracker) Unseen(items []models.AnalysisItem) []models.AnalysisItem {
	t.mu.RLock()
	defer t.mu.RUnlock()

	fresh := make([]models.AnalysisItem, 0, len(items))
	batch := make(map[string]bool, len(items))
	for _, it := range items {
		key := InsightKey(it)
		if batch[key] || t.seenLocked(key) {
			continue
		}
		batch[key] = true
		fresh = append(fresh, it)
	}
	return fresh
}

// MarkSeen records items and persists the store.
func (t *InsightTracker) MarkSeen(items []models.AnalysisItem) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for _, it := range items {
		t.seen[InsightKey(it)] = now
	}
	return t.save()
}

func (t *InsightTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.seen)
}

func (t *InsightTracker) cleanup() {
	cutoff := t.now().Add(-t.maxAge)
	for key, at := range t.seen {
		if at.Before(cutoff) {
			delete(t.seen, key)
		}
	}
}

func (t *InsightTracker) load() error {
	data, err := os.ReadFile(t.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read tracker file: %w", err)
	}

	var tracked []TrackedInsight
	if err := json.Unmarshal(data, &tracked); err != nil {
		return fmt.Errorf("failed to decode tracker data: %w", err)
	}
	for _, ti := range tracked {
		t.seen[ti.Key] = ti.SeenAt
	}
	return nil
}

// save replaces the store file atomically.
func (t *InsightTracker) save() error {
	tracked := make([]TrackedInsight, 0, len(t.seen))
	for key, at := range t.seen {
		tracked = append(tracked, TrackedInsight{Key: key, SeenAt: at})
	}
	sort.Slice(tracked, func(i, j int) bool { return tracked[i].Key < tracked[j].Key })

	data, err := json.MarshalIndent(tracked, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tracker data: %w", err)
	}
	tmp := t.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write tracker file: %w", err)
	}
	if err := os.Rename(tmp, t.filePath); err != nil {
		return fmt.Errorf("failed to replace tracker file: %w", err)
	}
	return nil
}

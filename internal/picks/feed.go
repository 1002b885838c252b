package picks

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// ModelPick is a machine-generated NBA spread pick. The generator behind it
// is a placeholder slate, not a real model integration.
type ModelPick struct {
	Game       string  `json:"game"`
	Team       string  `json:"team"`
	Spread     float64 `json:"spread"`
	Confidence float64 `json:"confidence"`
	GameDate   string  `json:"game_date"`
}

// Feed serves the current slate of model picks. Picks come from an optional
// JSON seed file, reloaded whenever the file changes; without one, a
// deterministic placeholder slate for the current date is generated.
type Feed struct {
	mu    sync.RWMutex
	path  string
	picks []ModelPick

	nowFn func() time.Time
}

// NewFeed creates a Feed. path may be empty, in which case only the
// generated placeholder slate is served.
func NewFeed(path string) *Feed {
	f := &Feed{
		path:  path,
		nowFn: time.Now,
	}
	if err := f.Reload(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Model pick seed file unreadable; using placeholder slate")
	}
	return f
}

// Picks returns the current slate.
func (f *Feed) Picks() []ModelPick {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]ModelPick, len(f.picks))
	copy(out, f.picks)
	return out
}

// Reload re-reads the seed file, or regenerates the placeholder slate when no
// file is configured.
func (f *Feed) Reload() error {
	if f.path == "" {
		f.set(placeholderSlate(f.nowFn().UTC()))
		return nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.set(placeholderSlate(f.nowFn().UTC()))
			return nil
		}
		return fmt.Errorf("read model picks file: %w", err)
	}

	var picks []ModelPick
	if err := json.Unmarshal(data, &picks); err != nil {
		return fmt.Errorf("decode model picks file: %w", err)
	}
	f.set(picks)
	log.Info().Int("picks", len(picks)).Str("path", f.path).Msg("Model pick slate loaded")
	return nil
}

func (f *Feed) set(picks []ModelPick) {
	f.mu.Lock()
	f.picks = picks
	f.mu.Unlock()
}

// Watch reloads the slate whenever the seed file changes. Blocks until ctx is
// done. Returns immediately when no seed file is configured.
func (f *Feed) Watch(ctx context.Context) error {
	if f.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch model picks dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := f.Reload(); err != nil {
				log.Warn().Err(err).Str("path", f.path).Msg("Model pick slate reload failed; keeping previous slate")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Model pick watcher error")
		}
	}
}

var matchups = [][2]string{
	{"BOS", "NYK"},
	{"LAL", "GSW"},
	{"DEN", "PHX"},
	{"MIL", "PHI"},
	{"OKC", "MIN"},
	{"MIA", "CLE"},
}

// placeholderSlate generates a deterministic slate for the given date. Same
// date, same slate.
func placeholderSlate(now time.Time) []ModelPick {
	date := now.Format("2006-01-02")
	slate := make([]ModelPick, 0, len(matchups))
	for i, m := range matchups {
		seed := hashSeed(date, i)
		home, away := m[0], m[1]
		team := home
		if seed%2 == 1 {
			team = away
		}
		// Spread in half-point steps between -12.0 and +12.0.
		spread := float64(int(seed%49)-24) / 2
		confidence := 0.5 + float64(seed%26)/100

		slate = append(slate, ModelPick{
			Game:       away + " @ " + home,
			Team:       team,
			Spread:     spread,
			Confidence: confidence,
			GameDate:   date,
		})
	}
	return slate
}

func hashSeed(date string, i int) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s/%d", date, i)
	return h.Sum64()
}

package picks

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPlaceholderSlateDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)
	a := placeholderSlate(now)
	b := placeholderSlate(now.Add(2 * time.Hour)) // same date, later tip-off

	if len(a) != len(matchups) {
		t.Fatalf("slate size = %d, want %d", len(a), len(matchups))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("pick %d differs across calls: %+v vs %+v", i, a[i], b[i])
		}
	}

	// A different date yields a different slate.
	c := placeholderSlate(now.AddDate(0, 0, 1))
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("slates for different dates should differ")
	}
}

func TestPlaceholderSlateBounds(t *testing.T) {
	slate := placeholderSlate(time.Now().UTC())
	for _, p := range slate {
		if p.Spread < -12 || p.Spread > 12 {
			t.Errorf("spread %v out of range for %s", p.Spread, p.Game)
		}
		if p.Confidence < 0.5 || p.Confidence > 0.75 {
			t.Errorf("confidence %v out of range for %s", p.Confidence, p.Game)
		}
		if p.Team == "" || p.Game == "" || p.GameDate == "" {
			t.Errorf("incomplete pick: %+v", p)
		}
	}
}

func TestFeedWithoutSeedFile(t *testing.T) {
	f := NewFeed("")
	if len(f.Picks()) != len(matchups) {
		t.Fatalf("placeholder slate size = %d, want %d", len(f.Picks()), len(matchups))
	}
}

func TestFeedLoadsSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picks.json")
	seed := `[{"game":"BOS @ NYK","team":"BOS","spread":-3.5,"confidence":0.61,"game_date":"2026-03-14"}]`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFeed(path)
	picks := f.Picks()
	if len(picks) != 1 {
		t.Fatalf("picks = %d, want 1", len(picks))
	}
	if picks[0].Team != "BOS" || picks[0].Spread != -3.5 {
		t.Errorf("unexpected pick: %+v", picks[0])
	}
}

func TestFeedMissingSeedFileFallsBack(t *testing.T) {
	f := NewFeed(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if len(f.Picks()) == 0 {
		t.Fatal("expected placeholder slate when seed file is missing")
	}
}

func TestFeedReloadKeepsSlateOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picks.json")
	seed := `[{"game":"BOS @ NYK","team":"BOS","spread":-3.5,"confidence":0.61,"game_date":"2026-03-14"}]`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFeed(path)

	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := f.Reload(); err == nil {
		t.Fatal("expected reload error for malformed seed file")
	}

	// The previous slate stays in place.
	if len(f.Picks()) != 1 {
		t.Fatalf("picks = %d, want previous slate of 1", len(f.Picks()))
	}
}

func TestPicksReturnsCopy(t *testing.T) {
	f := NewFeed("")
	a := f.Picks()
	if len(a) == 0 {
		t.Fatal("expected non-empty slate")
	}
	a[0].Team = "MUTATED"
	b := f.Picks()
	if b[0].Team == "MUTATED" {
		t.Error("Picks must return a copy, not the internal slice")
	}
}

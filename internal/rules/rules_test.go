package rules

import (
	"sync"
	"testing"
)

func boolPtr(v bool) *bool { return &v }
func floatPtr(v float32) *float32 { return &v }

func mustMatch(t *testing.T, appID, title string) Match {
	t.Helper()
	m, err := CompileMatch(appID, title)
	if err != nil {
		t.Fatalf("CompileMatch(%q, %q): %v", appID, title, err)
	}
	return m
}

func TestResolveLastDeclaredWins(t *testing.T) {
	table := NewTable(
		Rule{Match: mustMatch(t, "^foot$", ""), Overrides: Overrides{Floating: boolPtr(true)}},
		Rule{Match: mustMatch(t, "foot", ""), Overrides: Overrides{Floating: boolPtr(false)}},
	)

	got := table.Resolve("foot", "")
	if got.Floating == nil || *got.Floating != false {
		t.Fatalf("expected floating=false from later rule, got %+v", got)
	}
}

func TestResolveNonMatchingLaterRuleIgnored(t *testing.T) {
	table := NewTable(
		Rule{Match: mustMatch(t, "^foot$", ""), Overrides: Overrides{Floating: boolPtr(true)}},
		Rule{Match: mustMatch(t, "^firefox$", ""), Overrides: Overrides{Floating: boolPtr(false)}},
	)

	got := table.Resolve("foot", "")
	if !got.IsFloating() {
		t.Fatalf("expected floating=true, got %+v", got)
	}
}

func TestResolveFieldsIndependent(t *testing.T) {
	table := NewTable(
		Rule{Match: mustMatch(t, "", "Picture-in-Picture"), Overrides: Overrides{Floating: boolPtr(true), Opacity: floatPtr(0.5)}},
		Rule{Match: mustMatch(t, "firefox", ""), Overrides: Overrides{Opacity: floatPtr(0.9)}},
	)

	got := table.Resolve("firefox", "Picture-in-Picture")
	if !got.IsFloating() {
		t.Fatalf("expected floating from earlier rule")
	}
	if got.OpacityOr(1) != 0.9 {
		t.Fatalf("expected opacity 0.9 from later rule, got %v", got.OpacityOr(1))
	}
}

func TestResolveMatchBoth(t *testing.T) {
	table := NewTable(
		Rule{Match: mustMatch(t, "^mpv$", "^sample"), Overrides: Overrides{Floating: boolPtr(true)}},
	)

	if table.Resolve("mpv", "other").IsFloating() {
		t.Fatalf("title mismatch should not match")
	}
	if !table.Resolve("mpv", "sample.mkv").IsFloating() {
		t.Fatalf("both patterns match, expected floating")
	}
}

func TestResolveEmptyTable(t *testing.T) {
	var table *Table
	got := table.Resolve("foot", "x")
	if got.Floating != nil || got.Opacity != nil {
		t.Fatalf("expected no overrides, got %+v", got)
	}
	if got.OpacityOr(1) != 1 {
		t.Fatalf("expected default opacity")
	}
}

func TestCompileMatchInvalid(t *testing.T) {
	if _, err := CompileMatch("(", ""); err == nil {
		t.Fatalf("expected error for invalid app_id pattern")
	}
	if _, err := CompileMatch("", "[a-"); err == nil {
		t.Fatalf("expected error for invalid title pattern")
	}
}

func TestSnapshotConcurrentReaders(t *testing.T) {
	var s Snapshot
	a := NewTable(Rule{Overrides: Overrides{Floating: boolPtr(true), Opacity: floatPtr(0.5)}})
	b := NewTable(Rule{Overrides: Overrides{Floating: boolPtr(false), Opacity: floatPtr(0.8)}})
	s.Recompute(a, "x", "y")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				r := s.Load()
				floating := r.IsFloating()
				opacity := r.OpacityOr(1)
				if (floating && opacity != 0.5) || (!floating && opacity != 0.8) {
					t.Errorf("observed torn snapshot: floating=%v opacity=%v", floating, opacity)
					return
				}
			}
		}()
	}
	for i := 0; i < 1000; i++ {
		if i%2 == 0 {
			s.Recompute(b, "x", "y")
		} else {
			s.Recompute(a, "x", "y")
		}
	}
	close(stop)
	wg.Wait()
}

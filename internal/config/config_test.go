package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/tessera/internal/action"
)

func writeFile(t *testing.T, path string, lines ...string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Border != 20 {
		t.Fatalf("expected default border 20, got %d", cfg.Border)
	}
	if !cfg.Focus.FloatingFallback {
		t.Fatalf("expected floating fallback enabled by default")
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files loaded, got %v", res.Files)
	}
	if res.Config.LogLevel != "info" {
		t.Fatalf("expected default log level, got %q", res.Config.LogLevel)
	}
}

func TestLoadFromPath_FullConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path,
		"log_level: debug",
		"border: 8",
		"focus:",
		"  floating_fallback: false",
		"reconcile_interval: 2s",
		"outputs:",
		"  HDMI-A-1:",
		"    position: {x: 1920, y: 0}",
		"    mode: {width: 2560, height: 1440}",
		"  DP-2:",
		"    enabled: false",
		"window_rules:",
		"  - match: {app_id: \"^pavucontrol$\"}",
		"    floating: true",
		"  - match: {title: \"Picture-in-Picture\"}",
		"    opacity: 0.85",
		"bindings:",
		"  Mod4-Return: {action: spawn, command: [alacritty]}",
		"  Mod4-q: {}",
	)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.LogLevel != "debug" || cfg.Border != 8 || cfg.Focus.FloatingFallback {
		t.Fatalf("unexpected scalars: %+v", cfg)
	}
	if cfg.ReconcileInterval != 2*time.Second {
		t.Fatalf("expected reconcile interval 2s, got %v", cfg.ReconcileInterval)
	}

	hdmi := cfg.Output("HDMI-A-1")
	if hdmi.Position == nil || hdmi.Position.X != 1920 || !hdmi.Enabled {
		t.Fatalf("unexpected HDMI override: %+v", hdmi)
	}
	if cfg.Output("DP-2").Enabled {
		t.Fatalf("expected DP-2 disabled")
	}
	if unknown := cfg.Output("eDP-1"); !unknown.Enabled || unknown.Position != nil {
		t.Fatalf("expected unconfigured output to be enabled and auto placed")
	}

	if cfg.Rules().Len() != 2 {
		t.Fatalf("expected 2 rules, got %d", cfg.Rules().Len())
	}
	if !cfg.Rules().Resolve("pavucontrol", "").IsFloating() {
		t.Fatalf("expected pavucontrol to float")
	}

	spawn := cfg.Bindings["Mod4-Return"]
	if spawn.Kind != action.Spawn || spawn.Command[0] != "alacritty" {
		t.Fatalf("expected overridden spawn binding, got %+v", spawn)
	}
	if _, ok := cfg.Bindings["Mod4-q"]; ok {
		t.Fatalf("expected empty binding to unbind the default")
	}
	if _, ok := cfg.Bindings["Mod4-space"]; !ok {
		t.Fatalf("expected untouched default bindings to remain")
	}
}

func TestLoadFromPath_UnknownKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "bordr: 3")

	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path,
		"window_rules:",
		"  - match: {app_id: foot}",
		"    opacity: 1.5",
	)

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if verr.Path != "window_rules[0].opacity" {
		t.Fatalf("unexpected path %q", verr.Path)
	}
	if verr.Source.Line != 3 {
		t.Fatalf("expected source line 3, got %+v", verr.Source)
	}
	if !strings.Contains(err.Error(), "config.yaml:3:") {
		t.Fatalf("expected file:line context in %q", err.Error())
	}
}

func TestLoadFromPath_InvalidRulePattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path,
		"window_rules:",
		"  - match: {title: \"(\"}",
		"    floating: true",
	)

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path != "window_rules[0].match" {
		t.Fatalf("expected match validation error, got %v", err)
	}
}

func TestLoadFromPath_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml []string
		path string
	}{
		{"log level", []string{"log_level: loud"}, "log_level"},
		{"border", []string{"border: -1"}, "border"},
		{"mode", []string{"outputs:", "  DP-1:", "    mode: {width: 0, height: 10}"}, "outputs.DP-1.mode"},
		{"empty rule", []string{"window_rules:", "  - match: {app_id: x}"}, "window_rules[0]"},
		{"bad binding", []string{"bindings:", "  Mod4-x: {action: explode}"}, "bindings.Mod4-x"},
		{"switch without index", []string{"bindings:", "  Mod4-x: {action: switch-to-workspace, workspace: -2}"}, "bindings.Mod4-x"},
		{"interval", []string{"reconcile_interval: soon"}, "reconcile_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.yaml...)
			_, err := LoadFromPath(path)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestLoadFromPath_IncludesMergeInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rules.d", "10-base.yaml"),
		"border: 4",
		"window_rules:",
		"  - match: {app_id: foot}",
		"    floating: true",
	)
	writeFile(t, filepath.Join(dir, "rules.d", "20-more.yaml"),
		"window_rules:",
		"  - match: {app_id: foot}",
		"    floating: false",
	)
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path,
		"include: rules.d",
		"border: 12",
		"window_rules:",
		"  - match: {app_id: mpv}",
		"    floating: true",
	)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Border != 12 {
		t.Fatalf("expected including file to override border, got %d", res.Config.Border)
	}
	if len(res.Config.WindowRules) != 3 {
		t.Fatalf("expected 3 concatenated rules, got %d", len(res.Config.WindowRules))
	}
	if res.Config.Rules().Resolve("foot", "").IsFloating() {
		t.Fatalf("expected later include to win for foot")
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "include: b.yaml")
	writeFile(t, b, "include: a.yaml")

	_, err := LoadFromPath(a)
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path,
		"border: 6",
		"outputs:",
		"  eDP-1:",
		"    enabled: false",
	)
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	val, src, err := Explain(res, "border")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != 6 || src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("unexpected explain result %v %+v", val, src)
	}

	val, src, err = Explain(res, "outputs.eDP-1.enabled")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != false || src.Line != 4 {
		t.Fatalf("unexpected explain result %v %+v", val, src)
	}

	_, src, err = Explain(res, "log_level")
	if err != nil || src.Kind != SourceDefault {
		t.Fatalf("expected default source for log_level, got %+v %v", src, err)
	}

	_, src, err = Explain(res, "bindings.Mod4-q")
	if err != nil || src.Kind != SourceBuiltin {
		t.Fatalf("expected builtin source for default binding, got %+v %v", src, err)
	}

	if _, _, err := Explain(res, "layouts.grid"); err == nil {
		t.Fatalf("expected unknown path error")
	}
}

func TestWatcherNotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "border: 1")

	notify := make(chan string, 1)
	w := NewWatcher(path, notify, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "border: 2")
	writeFile(t, path, "border: 3")

	select {
	case <-notify:
	case <-time.After(3 * time.Second):
		t.Fatalf("expected a reload notification")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not stop after cancel")
	}
}

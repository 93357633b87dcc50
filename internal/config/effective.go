package config

import (
	"fmt"
	"time"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig layers raw over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.Border != nil {
		cfg.Border = *raw.Border
	}
	if raw.Focus != nil && raw.Focus.FloatingFallback != nil {
		cfg.Focus.FloatingFallback = *raw.Focus.FloatingFallback
	}
	if raw.ReconcileInterval != nil {
		d, err := time.ParseDuration(*raw.ReconcileInterval)
		if err != nil {
			return nil, &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("invalid duration: %w", err)}
		}
		cfg.ReconcileInterval = d
	}

	for name, ro := range raw.Outputs {
		oc := OutputConfig{Enabled: true}
		if ro.Position != nil {
			p := *ro.Position
			oc.Position = &p
		}
		if ro.Mode != nil {
			m := *ro.Mode
			oc.Mode = &m
		}
		if ro.Enabled != nil {
			oc.Enabled = *ro.Enabled
		}
		cfg.Outputs[name] = oc
	}

	if len(raw.WindowRules) > 0 {
		cfg.WindowRules = append([]WindowRule(nil), raw.WindowRules...)
	}

	for key, a := range raw.Bindings {
		if a.Kind == "" {
			// An empty mapping unbinds a default.
			delete(cfg.Bindings, key)
			continue
		}
		cfg.Bindings[key] = a
	}

	return cfg, nil
}

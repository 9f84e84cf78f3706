package domain

import (
	"fmt"
	"time"
)

// Defaults applied when a config field is not specified.
const (
	DefaultMinConfidence    = 0.3
	DefaultContextWindow    = 50
	DefaultBraceSearchLimit = 10
	DefaultSyntaxTimeout    = 10 * time.Second
	DefaultBackupDir        = ".codesnoutr/backups"
	DefaultStorePath        = ".codesnoutr/codesnoutr.db"
)

// Config holds project-level configuration loaded from .codesnoutr.yaml.
type Config struct {
	Engine     EngineConfig     `yaml:"engine"     json:"engine"`
	Syntax     SyntaxConfig     `yaml:"syntax"     json:"syntax"`
	Backup     BackupConfig     `yaml:"backup"     json:"backup"`
	Store      StoreConfig      `yaml:"store"      json:"store"`
	Validation ValidationConfig `yaml:"validation" json:"validation"`
}

// EngineConfig tunes the structural heuristics.
// Pointer types distinguish "not specified" from zero values.
type EngineConfig struct {
	MinConfidence    *float64 `yaml:"min_confidence,omitempty"     json:"min_confidence,omitempty"`
	ContextWindow    int      `yaml:"context_window,omitempty"     json:"context_window,omitempty"`
	BraceSearchLimit int      `yaml:"brace_search_limit,omitempty" json:"brace_search_limit,omitempty"`
	IndentUnit       string   `yaml:"indent_unit,omitempty"        json:"indent_unit,omitempty"`
}

// SyntaxConfig selects external syntax checkers per file kind.
type SyntaxConfig struct {
	Timeout        time.Duration       `yaml:"timeout,omitempty"         json:"timeout,omitempty"`
	RequireChecker bool                `yaml:"require_checker,omitempty" json:"require_checker,omitempty"`
	Commands       map[string][]string `yaml:"commands,omitempty"        json:"commands,omitempty"`
}

// BackupConfig locates the backup store.
type BackupConfig struct {
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`
}

// StoreConfig locates the issue database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// ValidationConfig extends and trims the validator's rule sets.
type ValidationConfig struct {
	DisabledConventions []string         `yaml:"disabled_conventions,omitempty" json:"disabled_conventions,omitempty"`
	ConfusablePairs     []ConfusablePair `yaml:"confusable_pairs,omitempty"     json:"confusable_pairs,omitempty"`
}

// ConfusablePair is a call that must not silently turn into another.
type ConfusablePair struct {
	From    string `yaml:"from"    json:"from"`
	To      string `yaml:"to"      json:"to"`
	Message string `yaml:"message" json:"message,omitempty"`
}

// DefaultConfig returns a zero-value config; accessors supply defaults.
func DefaultConfig() Config {
	return Config{}
}

// DefaultSyntaxCommands maps file kinds to external checker invocations.
// The scratch file path is appended as the last argument.
func DefaultSyntaxCommands() map[string][]string {
	return map[string][]string{
		"php": {"php", "-l"},
	}
}

// MinConfidence returns the shape-pass confidence floor.
func (c Config) MinConfidence() float64 {
	if c.Engine.MinConfidence != nil {
		return *c.Engine.MinConfidence
	}
	return DefaultMinConfidence
}

// ContextWindow returns how many lines the array scan looks back.
func (c Config) ContextWindow() int {
	if c.Engine.ContextWindow > 0 {
		return c.Engine.ContextWindow
	}
	return DefaultContextWindow
}

// BraceSearchLimit returns how far the applier looks for a class's opening brace.
func (c Config) BraceSearchLimit() int {
	if c.Engine.BraceSearchLimit > 0 {
		return c.Engine.BraceSearchLimit
	}
	return DefaultBraceSearchLimit
}

// SyntaxTimeout bounds one external checker run.
func (c Config) SyntaxTimeout() time.Duration {
	if c.Syntax.Timeout > 0 {
		return c.Syntax.Timeout
	}
	return DefaultSyntaxTimeout
}

// SyntaxCommands returns the default commands overlaid with configured ones.
func (c Config) SyntaxCommands() map[string][]string {
	cmds := DefaultSyntaxCommands()
	for kind, argv := range c.Syntax.Commands {
		cmds[kind] = argv
	}
	return cmds
}

// BackupDir returns the backup directory, relative to the project root
// unless absolute.
func (c Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return DefaultBackupDir
}

// StorePath returns the issue database path.
func (c Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return DefaultStorePath
}

// IsConventionDisabled reports whether the named convention rule is turned off.
func (c Config) IsConventionDisabled(name string) bool {
	for _, d := range c.Validation.DisabledConventions {
		if d == name {
			return true
		}
	}
	return false
}

// Validate checks config values for correctness.
func (c Config) Validate() error {
	// 1. min_confidence in [0, 1]
	if mc := c.Engine.MinConfidence; mc != nil && (*mc < 0 || *mc > 1) {
		return fmt.Errorf("engine.min_confidence must be between 0.0 and 1.0 (got %.2f)", *mc)
	}

	// 2. scan bounds must not be negative
	if c.Engine.ContextWindow < 0 {
		return fmt.Errorf("engine.context_window must be >= 0 (got %d)", c.Engine.ContextWindow)
	}
	if c.Engine.BraceSearchLimit < 0 {
		return fmt.Errorf("engine.brace_search_limit must be >= 0 (got %d)", c.Engine.BraceSearchLimit)
	}

	// 3. indent unit is whitespace only
	for _, r := range c.Engine.IndentUnit {
		if r != ' ' && r != '\t' {
			return fmt.Errorf("engine.indent_unit must contain only spaces or tabs (got %q)", c.Engine.IndentUnit)
		}
	}

	// 4. checker commands need a program
	for kind, argv := range c.Syntax.Commands {
		if len(argv) == 0 || argv[0] == "" {
			return fmt.Errorf("syntax.commands[%q] must name a program", kind)
		}
	}

	// 5. confusable pairs need both ends
	for i, p := range c.Validation.ConfusablePairs {
		if p.From == "" || p.To == "" {
			return fmt.Errorf("validation.confusable_pairs[%d] needs both from and to", i)
		}
		if p.From == p.To {
			return fmt.Errorf("validation.confusable_pairs[%d] maps %q to itself", i, p.From)
		}
	}

	return nil
}

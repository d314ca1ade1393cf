// Package profile maps report-format names to capture and decode settings.
// Defaults are embedded; a directory of yaml files can override or add
// profiles for engine builds that print differently.
package profile

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"

	"github.com/park285/fairy-eval-harness/internal/capture"
	"github.com/park285/fairy-eval-harness/internal/evaltable"
)

//go:embed profiles.yaml
var defaultFiles embed.FS

// Profile is one named report format.
type Profile struct {
	StartMarkers     []string `yaml:"start_markers"`
	TerminatorPrefix string   `yaml:"terminator_prefix"`
	RowKeyColumn     string   `yaml:"row_key_column"`
	HeaderSkip       int      `yaml:"header_skip"`
	Sentinel         string   `yaml:"sentinel"`
	Strict           bool     `yaml:"strict"`
}

// CaptureConfig translates the profile into the capture/decoder settings.
func (p Profile) CaptureConfig() (capture.Config, error) {
	var sentinel evaltable.SentinelPosition
	switch strings.ToLower(strings.TrimSpace(p.Sentinel)) {
	case "", "leading":
		sentinel = evaltable.SentinelLeading
	case "trailing":
		sentinel = evaltable.SentinelTrailing
	default:
		return capture.Config{}, fmt.Errorf("unknown sentinel position %q", p.Sentinel)
	}
	if p.HeaderSkip != 0 && p.HeaderSkip != 2 {
		return capture.Config{}, fmt.Errorf("header_skip %d not supported", p.HeaderSkip)
	}
	return capture.Config{
		StartMarkers:     p.StartMarkers,
		TerminatorPrefix: p.TerminatorPrefix,
		Decode: evaltable.Config{
			HeaderSkip:   p.HeaderSkip,
			Sentinel:     sentinel,
			Strict:       p.Strict,
			RowKeyColumn: p.RowKeyColumn,
		},
	}, nil
}

// Catalog loads profiles from the embedded defaults and an optional
// override directory.
type Catalog struct {
	mu   sync.RWMutex
	data map[string]Profile
}

// New loads the embedded profiles and then applies overrides from dir if
// provided.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{data: make(map[string]Profile)}

	raw, err := defaultFiles.ReadFile("profiles.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded profiles: %w", err)
	}
	if err := c.applyYAML(raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := c.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Get returns a named profile.
func (c *Catalog) Get(name string) (Profile, error) {
	c.mu.RLock()
	p, ok := c.data[strings.TrimSpace(name)]
	c.mu.RUnlock()
	if !ok {
		return Profile{}, fmt.Errorf("unknown report profile %q (have: %s)", name, strings.Join(c.Names(), ", "))
	}
	return p, nil
}

// Names lists the loaded profile names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.data))
	for name := range c.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read profile dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := c.applyYAML(b); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
	}
	return nil
}

func (c *Catalog) applyYAML(b []byte) error {
	var parsed map[string]Profile
	if err := yaml.Unmarshal(b, &parsed); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, p := range parsed {
		// Fail on bad settings at load time, not when a run starts.
		if _, err := p.CaptureConfig(); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		c.data[name] = p
	}
	return nil
}

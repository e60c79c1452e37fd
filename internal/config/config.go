// Package config loads and validates RunbookConfig, the immutable
// daemon configuration read once at startup. Neither the reducer nor the
// render projection ever mutates a RunbookConfig; both hold it read-only.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DialMode selects how the hardware dial's rotation is routed.
type DialMode string

const (
	DialModeOSScroll             DialMode = "os_scroll"
	DialModeVSCodeTerminalScroll DialMode = "vscode_terminal_scroll"
)

// SlotsPerPage is the fixed 3x3 keypad grid size.
const SlotsPerPage = 9

// Prompt is an immutable configuration entry describing one dispatchable
// command.
type Prompt struct {
	ID           string `yaml:"id"`
	Label        string `yaml:"label"`
	Command      string `yaml:"command"`
	FallbackText string `yaml:"fallback_text,omitempty"`
	Prefill      bool   `yaml:"prefill,omitempty"`
}

// HasFallback reports whether the prompt declares a degraded-mode fallback.
func (p Prompt) HasFallback() bool {
	return strings.TrimSpace(p.FallbackText) != ""
}

// Gate is an immutable configuration entry for a keypad slot that is
// navigation, not a prompt: pressing it never arms anything and never goes
// through the dispatch cycle. It opens Action as a URI in the editor
// immediately, bypassing KeypadPress's normal arm/confirm flow entirely.
type Gate struct {
	ID     string `yaml:"id"`
	Label  string `yaml:"label"`
	Action string `yaml:"action"`
}

// Page is one 3x3 grid of slots. Each slot holds a prompt id, a gate id, or
// "" for an empty slot.
type Page struct {
	Slots [SlotsPerPage]string `yaml:"slots"`
}

type rawConfig struct {
	Keypad struct {
		Pages []struct {
			Slots []string `yaml:"slots"`
		} `yaml:"pages"`
	} `yaml:"keypad"`
	Prompts []Prompt `yaml:"prompts"`
	Gates   []Gate   `yaml:"gates"`
	Dial    struct {
		Mode DialMode `yaml:"mode"`
	} `yaml:"dial"`
	Listen struct {
		Addr string `yaml:"addr"`
	} `yaml:"listen"`
}

// RunbookConfig is the fully validated, immutable configuration consumed by
// the reducer and the render projection. Construct it only via Load or
// Parse; both validate every invariant the core depends on.
type RunbookConfig struct {
	Pages      []Page
	Prompts    map[string]Prompt
	Gates      map[string]Gate
	DialMode   DialMode
	ListenAddr string
}

// PageCount returns the number of configured keypad pages.
func (c *RunbookConfig) PageCount() int {
	if c == nil {
		return 0
	}
	return len(c.Pages)
}

// Prompt looks up a configured prompt by id.
func (c *RunbookConfig) Prompt(id string) (Prompt, bool) {
	if c == nil {
		return Prompt{}, false
	}
	p, ok := c.Prompts[id]
	return p, ok
}

// Gate looks up a configured gate by id.
func (c *RunbookConfig) Gate(id string) (Gate, bool) {
	if c == nil {
		return Gate{}, false
	}
	g, ok := c.Gates[id]
	return g, ok
}

const DefaultListenAddr = "127.0.0.1:29381"

// Load reads and validates a RunbookConfig from a YAML file on disk.
func Load(path string) (*RunbookConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates and builds a RunbookConfig from raw YAML bytes.
func Parse(data []byte) (*RunbookConfig, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &RunbookConfig{
		Prompts:    make(map[string]Prompt, len(raw.Prompts)),
		Gates:      make(map[string]Gate, len(raw.Gates)),
		DialMode:   raw.Dial.Mode,
		ListenAddr: strings.TrimSpace(raw.Listen.Addr),
	}
	if cfg.DialMode == "" {
		cfg.DialMode = DialModeOSScroll
	}
	if cfg.DialMode != DialModeOSScroll && cfg.DialMode != DialModeVSCodeTerminalScroll {
		return nil, fmt.Errorf("dial.mode must be %q or %q, got %q", DialModeOSScroll, DialModeVSCodeTerminalScroll, cfg.DialMode)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	for _, p := range raw.Prompts {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("prompts: entry with empty id")
		}
		if _, dup := cfg.Prompts[id]; dup {
			return nil, fmt.Errorf("prompts: duplicate id %q", id)
		}
		p.ID = id
		cfg.Prompts[id] = p
	}

	for _, g := range raw.Gates {
		id := strings.TrimSpace(g.ID)
		if id == "" {
			return nil, fmt.Errorf("gates: entry with empty id")
		}
		if _, dup := cfg.Gates[id]; dup {
			return nil, fmt.Errorf("gates: duplicate id %q", id)
		}
		if _, clash := cfg.Prompts[id]; clash {
			return nil, fmt.Errorf("gates: id %q also claimed by a prompt", id)
		}
		if strings.TrimSpace(g.Action) == "" {
			return nil, fmt.Errorf("gates: %q: action is required", id)
		}
		g.ID = id
		cfg.Gates[id] = g
	}

	if len(raw.Keypad.Pages) == 0 {
		return nil, fmt.Errorf("keypad.pages: at least one page is required")
	}
	cfg.Pages = make([]Page, len(raw.Keypad.Pages))
	for i, rp := range raw.Keypad.Pages {
		if len(rp.Slots) != SlotsPerPage {
			return nil, fmt.Errorf("keypad.pages[%d].slots: exactly %d entries required, got %d", i, SlotsPerPage, len(rp.Slots))
		}
		var page Page
		for j, slot := range rp.Slots {
			slot = strings.TrimSpace(slot)
			if slot != "" {
				_, isPrompt := cfg.Prompts[slot]
				_, isGate := cfg.Gates[slot]
				if !isPrompt && !isGate {
					return nil, fmt.Errorf("keypad.pages[%d].slots[%d]: unknown prompt or gate id %q", i, j, slot)
				}
			}
			page.Slots[j] = slot
		}
		cfg.Pages[i] = page
	}

	return cfg, nil
}

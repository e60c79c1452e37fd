package core

import "github.com/EffortlessMetrics/runbookd/internal/config"

// effectiveCommand returns the hook-truth command when the daemon can prove
// an agent session is live, otherwise the prompt's degraded fallback
// (falling back to the normal command if no fallback was configured).
func effectiveCommand(p config.Prompt, s *DaemonState) string {
	if s.HooksMode == HooksActive && s.sessionIsKnownAgent() {
		return p.Command
	}
	if p.HasFallback() {
		return p.FallbackText
	}
	return p.Command
}

func (s *DaemonState) clearArm() {
	s.Armed = nil
}

func (s *DaemonState) setArm(promptID string) {
	id := promptID
	s.Armed = &id
}

func (s *DaemonState) armedPrompt(cfg *config.RunbookConfig) (config.Prompt, bool) {
	if s.Armed == nil {
		return config.Prompt{}, false
	}
	return cfg.Prompt(*s.Armed)
}

// applyKeypadPress arms the pressed prompt. A KeypadPress by itself never
// emits SendKey{Enter} or any other keystroke — at most a prefill SendText.
//
// A slot id naming a gate instead of a prompt bypasses this entirely: gates
// are navigation, not prompts, so pressing one opens its URI immediately and
// never touches Armed.
func (s *DaemonState) applyKeypadPress(cfg *config.RunbookConfig, promptID string) []SideEffect {
	if g, ok := cfg.Gate(promptID); ok {
		return []SideEffect{sendEditorCommand(OpenURICommand(g.Action))}
	}
	p, ok := cfg.Prompt(promptID)
	if !ok {
		return []SideEffect{notice("unknown prompt: " + promptID)}
	}
	s.setArm(p.ID)
	if !p.Prefill {
		return nil
	}
	return []SideEffect{sendEditorCommand(SendTextCommand(p.Command, false))}
}

// applyDialpadButton routes CtrlC/Export/Esc/Enter to their dispatch effects.
func (s *DaemonState) applyDialpadButton(cfg *config.RunbookConfig, button DialpadButton) []SideEffect {
	switch button {
	case ButtonCtrlC:
		return []SideEffect{sendEditorCommand(SendKeyCommand(KeyCtrlC))}
	case ButtonExport:
		return []SideEffect{sendEditorCommand(SendTextCommand("/export", true))}
	case ButtonEsc:
		if s.Armed != nil {
			s.clearArm()
			return nil
		}
		return []SideEffect{sendEditorCommand(SendKeyCommand(KeyEsc))}
	case ButtonEnter:
		return s.applyEnter(cfg)
	default:
		return nil
	}
}

func (s *DaemonState) applyEnter(cfg *config.RunbookConfig) []SideEffect {
	if s.Armed == nil {
		return []SideEffect{sendEditorCommand(SendKeyCommand(KeyEnter))}
	}
	p, ok := s.armedPrompt(cfg)
	s.clearArm()
	if !ok {
		return []SideEffect{notice("armed prompt no longer exists")}
	}
	if p.Prefill {
		return []SideEffect{sendEditorCommand(SendKeyCommand(KeyEnter))}
	}
	cmd := effectiveCommand(p, s)
	if s.HooksMode == HooksAbsent {
		s.degradedSent = true
	}
	return []SideEffect{sendEditorCommand(SendTextCommand(cmd, true))}
}

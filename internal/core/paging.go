package core

import "github.com/EffortlessMetrics/runbookd/internal/config"

// applyPageNav wraps page_index around pageCount in either direction. It is a
// no-op if the config has no pages (pageCount == 0), which cannot happen for
// a validated RunbookConfig but is guarded defensively since the reducer
// must be total.
func (s *DaemonState) applyPageNav(cfg *config.RunbookConfig, dir PageDirection) {
	n := cfg.PageCount()
	if n == 0 {
		return
	}
	switch dir {
	case PagePrev:
		s.PageIndex = ((s.PageIndex-1)%n + n) % n
	case PageNext:
		s.PageIndex = (s.PageIndex + 1) % n
	}
}

// applyAdjustment handles dial and roller input. Dial adjustments only
// produce an editor scroll command in vscode_terminal_scroll mode; otherwise
// the OS already handles the physical scroll and the event is dropped.
// Roller adjustments always move the active terminal selection, clamped to
// the known range.
func (s *DaemonState) applyAdjustment(cfg *config.RunbookConfig, kind AdjustKind, delta int32) []SideEffect {
	switch kind {
	case AdjustDial:
		if cfg.DialMode == config.DialModeVSCodeTerminalScroll {
			return []SideEffect{sendEditorCommand(ScrollTerminalCommand(delta))}
		}
		return nil
	case AdjustRoller:
		s.moveActiveTerminal(delta)
		return nil
	default:
		return nil
	}
}

func (s *DaemonState) moveActiveTerminal(delta int32) {
	n := len(s.Terminals)
	if n == 0 {
		s.ActiveTerminalIndex = nil
		return
	}
	cur := 0
	if s.ActiveTerminalIndex != nil {
		cur = *s.ActiveTerminalIndex
	}
	next := cur + int(delta)
	if next < 0 {
		next = 0
	}
	if max := n - 1; next > max {
		next = max
	}
	s.ActiveTerminalIndex = &next
}

// applyTerminalsSnapshot replaces the terminal list wholesale, keeps the
// active index only if it names a terminal in the new snapshot (clearing it
// otherwise), and prunes tags no longer present in the snapshot.
func (s *DaemonState) applyTerminalsSnapshot(terminals []TerminalRef, activeIndex *int) {
	s.Terminals = make([]Terminal, len(terminals))
	for i, t := range terminals {
		s.Terminals[i] = Terminal{Index: t.Index, SessionTag: t.SessionTag}
	}
	s.ActiveTerminalIndex = nil
	if activeIndex != nil {
		if _, ok := s.terminalByIndex(*activeIndex); ok {
			idx := *activeIndex
			s.ActiveTerminalIndex = &idx
		}
	}
	s.pruneTags()
}

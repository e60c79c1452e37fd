package core

// learnTag records tag -> sessionID, the one permitted tag-learning
// operation. It returns false if the tag was already bound to a different
// session; last-writer-wins is forbidden, so the caller must reject and
// surface a Notice rather than overwrite. conflictSID is the session the tag
// already pointed to when ok is false.
func (s *DaemonState) learnTag(sessionID, tag string) (ok bool, conflictSID string) {
	if tag == "" {
		return true, ""
	}
	if existing, present := s.Tags[tag]; present {
		if existing == sessionID {
			return true, ""
		}
		return false, existing
	}
	s.Tags[tag] = sessionID
	return true, ""
}

// pruneTags drops tag->session_id entries for sessions that have ended and
// whose tag no longer appears in the current terminal snapshot.
func (s *DaemonState) pruneTags() {
	if len(s.Tags) == 0 {
		return
	}
	present := make(map[string]bool, len(s.Terminals))
	for _, t := range s.Terminals {
		if t.SessionTag != "" {
			present[t.SessionTag] = true
		}
	}
	for tag, sid := range s.Tags {
		if _, live := s.Sessions[sid]; live {
			continue
		}
		if !present[tag] {
			delete(s.Tags, tag)
		}
	}
}

func (s *DaemonState) terminalByIndex(index int) (Terminal, bool) {
	for _, t := range s.Terminals {
		if t.Index == index {
			return t, true
		}
	}
	return Terminal{}, false
}

// resolveAgentState is the single permitted heuristic for picking which
// session's state the device shows: the explicit terminal -> tag -> session
// chain, with no fallback guesses.
func (s *DaemonState) resolveAgentState() AgentState {
	switch s.liveSessionCount() {
	case 0:
		if s.HooksMode == HooksAbsent && s.degradedSent {
			return StateSent
		}
		if s.LastEndedState != nil {
			return *s.LastEndedState
		}
		return StateUnknown
	case 1:
		for _, sess := range s.Sessions {
			return sess.AgentState
		}
		return StateUnknown // unreachable
	default:
		if s.ActiveTerminalIndex == nil {
			return StateUnknown
		}
		term, ok := s.terminalByIndex(*s.ActiveTerminalIndex)
		if !ok || term.SessionTag == "" {
			return StateUnknown
		}
		sid, ok := s.Tags[term.SessionTag]
		if !ok {
			return StateUnknown
		}
		sess, ok := s.Sessions[sid]
		if !ok {
			return StateUnknown
		}
		return sess.AgentState
	}
}

// sessionIsKnownAgent reports whether the currently resolved session (per
// resolveAgentState) is backed by a real, live session rather than a
// degraded-mode guess. Used by effectiveCommand.
func (s *DaemonState) sessionIsKnownAgent() bool {
	switch s.liveSessionCount() {
	case 0:
		return false
	case 1:
		return true
	default:
		if s.ActiveTerminalIndex == nil {
			return false
		}
		term, ok := s.terminalByIndex(*s.ActiveTerminalIndex)
		if !ok || term.SessionTag == "" {
			return false
		}
		sid, ok := s.Tags[term.SessionTag]
		if !ok {
			return false
		}
		_, ok = s.Sessions[sid]
		return ok
	}
}

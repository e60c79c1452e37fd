package core

// applyHook processes one hook event, learning its tag and moving the
// session's state per the canonical hook table. It always activates
// HooksMode and stamps LastHookAt, even for hook names or matchers the table
// does not recognize — activation is unconditional on "any hook event".
func (s *DaemonState) applyHook(ev Event) []SideEffect {
	s.HooksMode = HooksActive
	s.LastHookAt = ev.At

	if ev.Hook == HookSessionEnd {
		return s.applySessionEnd(ev)
	}

	var effects []SideEffect
	sess, existed := s.session(ev.SessionID)
	if !existed {
		sess = &Session{SessionID: ev.SessionID, AgentState: StateUnknown}
		s.Sessions[ev.SessionID] = sess
		// New session activity clears the latched ended-state per the data
		// model note on LastEndedState.
		s.LastEndedState = nil
	}
	sess.LastEventAt = ev.At

	if ev.SessionTag != "" {
		ok, conflict := s.learnTag(ev.SessionID, ev.SessionTag)
		if !ok {
			effects = append(effects, notice("session_tag "+ev.SessionTag+" already bound to session "+conflict+"; rejecting rebind to "+ev.SessionID))
		} else {
			sess.SessionTag = ev.SessionTag
		}
	}

	if ev.Hook == HookSessionStart {
		sess.AgentState = StateUnknown
		return effects
	}

	target, known := hookTarget(ev.Hook, ev.Matcher)
	if !known {
		effects = append(effects, notice("unrecognized hook: "+string(ev.Hook)+"/"+ev.Matcher))
		return effects
	}

	if sess.AgentState == StateBlocked && !stickyOverrides[target] {
		// Blocked is sticky; the table's only overrides are
		// Running/Idle/Complete/Settled/Ended.
		return effects
	}
	sess.AgentState = target
	return effects
}

func (s *DaemonState) applySessionEnd(ev Event) []SideEffect {
	sess, ok := s.session(ev.SessionID)
	if !ok {
		return nil
	}
	delete(s.Sessions, ev.SessionID)
	if s.liveSessionCount() == 0 {
		final := sess.AgentState
		s.LastEndedState = &final
		s.LastEndedStateAt = ev.At
	}
	return nil
}

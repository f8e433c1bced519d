package audio

// HoldLock locks the service state until the returned func is called.
func (s *Service) HoldLock() (unlock func()) {
	s.mu.Lock()
	return s.mu.Unlock
}

// MuteHeld does what SetEnabled(false) does to effects and narration, for a
// caller that already holds the lock.
func (s *Service) MuteHeld() {
	s.enabled.Store(false)
	for _, t := range s.stopAllLocked() {
		t.Stop()
	}
}

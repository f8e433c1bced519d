package playback

import (
	"io"
	"sync"
)

// pcmStream feeds rendered PCM to an oto player.
// The stream owns its data so it stays reachable for the whole playback.
type pcmStream struct {
	mu     sync.Mutex
	data   []byte
	pos    int
	loop   bool
	closed bool
}

func newPCMStream(data []byte, loop bool) *pcmStream {
	return &pcmStream{data: data, loop: loop}
}

// Read implements io.Reader. A looping stream wraps around at the end and
// never reports EOF until closed.
func (s *pcmStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.data) == 0 {
		return 0, io.EOF
	}
	if s.pos >= len(s.data) {
		if !s.loop {
			return 0, io.EOF
		}
		s.pos = 0
	}

	n := copy(p, s.data[s.pos:])
	s.pos += n
	return n, nil
}

// Close releases the PCM buffer.
func (s *pcmStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
}

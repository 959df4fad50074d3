package line

import "sync"

// Simulated is an in-memory Driver used by the LSM's scenario and property
// tests: it lets a test inject RX edges and observe every TX transition,
// the same role the teacher's test doubles play for ptt.go in ptt_test.go.
type Simulated struct {
	mu      sync.Mutex
	tx      Level
	rx      Level
	handler EdgeHandler

	// txLog records every level SetTX ever asserted, in order, including
	// repeats suppressed by production drivers' idempotency check -- tests
	// want to see attempted writes even when they're no-ops on real wire.
	txLog []Level
}

// NewSimulated returns a Simulated driver with both lines idling HI.
func NewSimulated() *Simulated {
	return &Simulated{tx: HI, rx: HI}
}

func (s *Simulated) SetTX(level Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tx = level
	s.txLog = append(s.txLog, level)
}

func (s *Simulated) ReadRX() Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rx
}

func (s *Simulated) OnEdge(h EdgeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

func (s *Simulated) Close() error { return nil }

// TXLevel returns the last level asserted by SetTX.
func (s *Simulated) TXLevel() Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx
}

// TXLog returns a copy of every level ever asserted via SetTX, in order.
func (s *Simulated) TXLog() []Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Level, len(s.txLog))
	copy(out, s.txLog)
	return out
}

// InjectEdge simulates the bus transitioning to level, as another device
// (or this test) driving the wire would. It calls the installed edge
// handler synchronously, matching how an ISR would call back into the LSM.
func (s *Simulated) InjectEdge(level Level) {
	s.mu.Lock()
	s.rx = level
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		h(level)
	}
}

// AssertOtherDeviceDrives simulates a second device pulling the bus LO
// regardless of what this device asserted -- the mechanism a collision
// test uses to provoke the LSM's collision detector.
func (s *Simulated) AssertOtherDeviceDrives(level Level) {
	s.InjectEdge(level)
}

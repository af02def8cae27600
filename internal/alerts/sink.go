package alerts

import (
	"sync"
	"time"
)

type Level string

const (
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// Alert is a user-facing notice queued for the next client poll.
type Alert struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Sink buffers alerts raised by background paths (storage quota, sync
// failures) until a client drains them. The worst data-loss outcome in
// this system is surfaced here rather than swallowed.
type Sink struct {
	mu     sync.Mutex
	buffer []Alert
	now    func() time.Time
}

func NewSink() *Sink {
	return &Sink{now: time.Now}
}

// QuotaMessage matches the wording field operators already know from the
// device app.
const QuotaMessage = "⚠️ Memória cheia! O dispositivo não tem mais espaço para salvar fotos ou dados offline. Tente sincronizar ou limpar dados antigos."

func (s *Sink) RaiseQuotaWarning() {
	s.Raise(LevelWarning, QuotaMessage)
}

func (s *Sink) Raise(level Level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = append(s.buffer, Alert{Level: level, Message: message, At: s.now()})
}

// Drain returns buffered alerts oldest-first and clears the buffer.
func (s *Sink) Drain() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.buffer
	s.buffer = nil
	return out
}

// Peek returns buffered alerts without clearing them.
func (s *Sink) Peek() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Alert, len(s.buffer))
	copy(out, s.buffer)
	return out
}

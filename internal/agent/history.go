package agent

import (
	"log/slog"
	"sync"
)

// HistoryStore maps threadID to that conversation's ordered exchanges.
// Access is guarded per thread: requests on the same thread serialize, while
// distinct threads proceed fully in parallel. History is append-only within
// a session; the only other mutation is the reset applied when a thread's
// state is found invalid.
type HistoryStore struct {
	mu      sync.Mutex // guards threads map only
	threads map[string]*thread
	maxLen  int
	logger  *slog.Logger
}

type thread struct {
	mu        sync.Mutex
	exchanges []Exchange
}

// HistoryOption configures a HistoryStore.
type HistoryOption func(*HistoryStore)

// WithMaxLength caps the number of exchanges kept per thread; the oldest are
// dropped first. n <= 0 keeps everything.
func WithMaxLength(n int) HistoryOption {
	return func(s *HistoryStore) {
		s.maxLen = n
	}
}

// NewHistoryStore creates an empty store. logger may be nil.
func NewHistoryStore(logger *slog.Logger, opts ...HistoryOption) *HistoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &HistoryStore{
		threads: make(map[string]*thread),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ThreadHandle is exclusive access to one thread's history. Callers must
// Release exactly once, on every path including timeouts.
type ThreadHandle struct {
	store    *HistoryStore
	threadID string
	t        *thread
}

// Acquire locks threadID's history and returns a handle to it. Blocks while
// another request holds the same thread.
func (s *HistoryStore) Acquire(threadID string) *ThreadHandle {
	s.mu.Lock()
	t, ok := s.threads[threadID]
	if !ok {
		t = &thread{}
		s.threads[threadID] = t
	}
	s.mu.Unlock()

	t.mu.Lock()
	return &ThreadHandle{store: s, threadID: threadID, t: t}
}

// History returns a copy of the thread's exchanges in submission order.
// If the stored state is invalid the thread is reset to empty and the
// request proceeds with no history.
func (h *ThreadHandle) History() []Exchange {
	if err := validateHistory(h.t.exchanges); err != nil {
		h.store.logger.Warn("resetting thread history",
			"thread_id", h.threadID,
			"error", err,
		)
		h.t.exchanges = nil
		return nil
	}
	out := make([]Exchange, len(h.t.exchanges))
	copy(out, h.t.exchanges)
	return out
}

// Append records a completed exchange at the end of the thread's history,
// evicting the oldest exchanges past the store's cap.
func (h *ThreadHandle) Append(ex Exchange) {
	h.t.exchanges = append(h.t.exchanges, ex)
	if limit := h.store.maxLen; limit > 0 && len(h.t.exchanges) > limit {
		h.t.exchanges = h.t.exchanges[len(h.t.exchanges)-limit:]
	}
}

// Release unlocks the thread.
func (h *ThreadHandle) Release() {
	h.t.mu.Unlock()
}

// Len returns the number of threads with recorded history.
func (s *HistoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// validateHistory checks the append-only invariants: every stored exchange
// has question text and a valid source tag.
func validateHistory(exchanges []Exchange) error {
	for _, ex := range exchanges {
		if ex.Question.Text == "" {
			return ErrThreadState
		}
		if _, err := ParseCategory(string(ex.Answer.Source)); err != nil {
			return ErrThreadState
		}
	}
	return nil
}

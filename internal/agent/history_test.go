package agent

import (
	"fmt"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestHistoryAppendOrder(t *testing.T) {
	store := NewHistoryStore(nil)

	for i := range 3 {
		h := store.Acquire("t1")
		h.Append(Exchange{
			Question: Question{Text: fmt.Sprintf("q%d", i), ThreadID: "t1"},
			Answer:   Answer{Text: fmt.Sprintf("a%d", i), Source: CategoryHandbook},
		})
		h.Release()
	}

	h := store.Acquire("t1")
	defer h.Release()
	history := h.History()
	if len(history) != 3 {
		t.Fatalf("history has %d exchanges, want 3", len(history))
	}
	for i, ex := range history {
		if ex.Question.Text != fmt.Sprintf("q%d", i) {
			t.Errorf("history[%d].Question = %q, want q%d (submission order)", i, ex.Question.Text, i)
		}
	}
}

func TestHistoryThreadsAreIndependent(t *testing.T) {
	store := NewHistoryStore(nil)

	h1 := store.Acquire("t1")
	h1.Append(Exchange{
		Question: Question{Text: "q", ThreadID: "t1"},
		Answer:   Answer{Text: "a", Source: CategoryHandbook},
	})
	h1.Release()

	h2 := store.Acquire("t2")
	defer h2.Release()
	if len(h2.History()) != 0 {
		t.Error("fresh thread t2 sees t1's history")
	}
	if store.Len() != 2 {
		t.Errorf("store.Len() = %d, want 2", store.Len())
	}
}

func TestHistoryCopyIsIsolated(t *testing.T) {
	store := NewHistoryStore(nil)

	h := store.Acquire("t1")
	h.Append(Exchange{
		Question: Question{Text: "q", ThreadID: "t1"},
		Answer:   Answer{Text: "a", Source: CategoryHandbook},
	})
	snapshot := h.History()
	snapshot[0].Answer.Text = "mutated"
	h.Release()

	h2 := store.Acquire("t1")
	defer h2.Release()
	if h2.History()[0].Answer.Text != "a" {
		t.Error("mutating the History() copy changed the stored history")
	}
}

func TestHistoryInvalidStateResets(t *testing.T) {
	store := NewHistoryStore(nil)

	h := store.Acquire("t1")
	// Corrupt entry: answer with an unrepresentable source tag.
	h.Append(Exchange{
		Question: Question{Text: "q", ThreadID: "t1"},
		Answer:   Answer{Text: "a", Source: Category("corrupt")},
	})
	if got := h.History(); len(got) != 0 {
		t.Errorf("invalid thread state yielded %d exchanges, want reset to 0", len(got))
	}
	// The request proceeds: subsequent appends land on a clean slate.
	h.Append(Exchange{
		Question: Question{Text: "q2", ThreadID: "t1"},
		Answer:   Answer{Text: "a2", Source: CategoryHandbook},
	})
	if got := h.History(); len(got) != 1 {
		t.Errorf("history after reset+append has %d exchanges, want 1", len(got))
	}
	h.Release()
}

func TestHistoryMaxLengthEvictsOldest(t *testing.T) {
	store := NewHistoryStore(nil, WithMaxLength(3))

	h := store.Acquire("t1")
	for i := range 5 {
		h.Append(Exchange{
			Question: Question{Text: fmt.Sprintf("q%d", i), ThreadID: "t1"},
			Answer:   Answer{Text: "a", Source: CategoryHandbook},
		})
	}
	history := h.History()
	h.Release()

	if len(history) != 3 {
		t.Fatalf("history has %d exchanges, want cap of 3", len(history))
	}
	for i, want := range []string{"q2", "q3", "q4"} {
		if history[i].Question.Text != want {
			t.Errorf("history[%d].Question = %q, want %q (oldest evicted first)", i, history[i].Question.Text, want)
		}
	}
}

func TestHistoryConcurrentThreads(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewHistoryStore(nil)
	const threads = 8
	const perThread = 20

	var wg sync.WaitGroup
	for tid := range threads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			threadID := fmt.Sprintf("t%d", tid)
			for i := range perThread {
				h := store.Acquire(threadID)
				h.Append(Exchange{
					Question: Question{Text: fmt.Sprintf("q%d", i), ThreadID: threadID},
					Answer:   Answer{Text: "a", Source: CategoryConversational},
				})
				h.Release()
			}
		}()
	}
	wg.Wait()

	for tid := range threads {
		h := store.Acquire(fmt.Sprintf("t%d", tid))
		if got := len(h.History()); got != perThread {
			t.Errorf("thread t%d has %d exchanges, want %d", tid, got, perThread)
		}
		h.Release()
	}
}

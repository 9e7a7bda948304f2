package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/atlaslab/handbook/internal/knowledge"
)

// newTestExecutor wires an Executor from per-stage stubs.
func newTestExecutor(classify, grade, generate *stubGenerator, retriever *stubRetriever) (*Executor, *HistoryStore) {
	history := NewHistoryStore(nil)
	e := NewExecutor(
		NewClassifier(classify, nil),
		retriever,
		NewGrader(grade, 2, nil),
		NewGenerator(generate, nil),
		history,
		nil,
	)
	return e, history
}

func TestAskHandbookScenario(t *testing.T) {
	// Scenario: a matching passage exists and survives grading.
	retriever := &stubRetriever{results: []knowledge.Result{passage("d1", "Employees accrue 20 days of vacation per year.")}}
	e, history := newTestExecutor(
		fixedGenerator("handbook"),
		fixedGenerator("yes"),
		fixedGenerator("You accrue 20 days of vacation per year."),
		retriever,
	)

	answer := e.Ask(context.Background(), Question{Text: "What is the vacation policy?", ThreadID: "t1"})

	if answer.Source != CategoryHandbook {
		t.Errorf("answer.Source = %q, want %q", answer.Source, CategoryHandbook)
	}
	if answer.Text != "You accrue 20 days of vacation per year." {
		t.Errorf("answer.Text = %q, want grounded text", answer.Text)
	}
	if retriever.calls() != 1 {
		t.Errorf("retriever called %d times, want 1", retriever.calls())
	}

	h := history.Acquire("t1")
	defer h.Release()
	if got := len(h.History()); got != 1 {
		t.Errorf("history has %d exchanges after one request, want 1", got)
	}
}

func TestAskConversationalSkipsRetrieval(t *testing.T) {
	retriever := &stubRetriever{}
	grade := fixedGenerator("yes")
	e, _ := newTestExecutor(
		fixedGenerator("conversational"),
		grade,
		fixedGenerator("I'm doing great, thanks for asking!"),
		retriever,
	)

	answer := e.Ask(context.Background(), Question{Text: "How are you today?", ThreadID: "t1"})

	if answer.Source != CategoryConversational {
		t.Errorf("answer.Source = %q, want %q", answer.Source, CategoryConversational)
	}
	if retriever.calls() != 0 {
		t.Errorf("retriever called %d times on conversational branch, want 0", retriever.calls())
	}
	if grade.calls() != 0 {
		t.Errorf("grader called %d times on conversational branch, want 0", grade.calls())
	}
}

func TestAskOffTopicDeclines(t *testing.T) {
	e, _ := newTestExecutor(
		fixedGenerator("off_topic"),
		fixedGenerator("yes"),
		fixedGenerator("should never be called"),
		&stubRetriever{},
	)

	answer := e.Ask(context.Background(), Question{Text: "Who is the strongest Naruto character?", ThreadID: "t1"})

	if answer.Source != CategoryOffTopic {
		t.Errorf("answer.Source = %q, want %q", answer.Source, CategoryOffTopic)
	}
	if answer.Text != offTopicReply {
		t.Errorf("answer.Text = %q, want the fixed decline", answer.Text)
	}
}

func TestAskGradingEmptyOverridesToNotFound(t *testing.T) {
	// Scenario: candidates retrieved, all graded irrelevant.
	retriever := &stubRetriever{results: []knowledge.Result{passage("d1", "office dog policy")}}
	e, _ := newTestExecutor(
		fixedGenerator("handbook"),
		fixedGenerator("no"),
		fixedGenerator("should never be called"),
		retriever,
	)

	answer := e.Ask(context.Background(), Question{Text: "What is the sabbatical policy?", ThreadID: "t1"})

	if answer.Source != CategoryNotFound {
		t.Errorf("answer.Source = %q, want %q (never %q)", answer.Source, CategoryNotFound, CategoryHandbook)
	}
	if answer.Text != notFoundReply {
		t.Errorf("answer.Text = %q, want the fixed not-found reply", answer.Text)
	}
}

func TestAskEmptyRetrievalIsNotFound(t *testing.T) {
	e, _ := newTestExecutor(
		fixedGenerator("handbook"),
		fixedGenerator("yes"),
		fixedGenerator("should never be called"),
		&stubRetriever{},
	)

	answer := e.Ask(context.Background(), Question{Text: "What is the sabbatical policy?", ThreadID: "t1"})
	if answer.Source != CategoryNotFound {
		t.Errorf("answer.Source = %q, want %q", answer.Source, CategoryNotFound)
	}
}

func TestAskRetrievalFailureIsNotFound(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("pgvector unreachable")}
	e, _ := newTestExecutor(
		fixedGenerator("handbook"),
		fixedGenerator("yes"),
		fixedGenerator("should never be called"),
		retriever,
	)

	answer := e.Ask(context.Background(), Question{Text: "What is the vacation policy?", ThreadID: "t1"})
	if answer.Source != CategoryNotFound {
		t.Errorf("answer.Source = %q, want %q after retrieval failure", answer.Source, CategoryNotFound)
	}
}

func TestAskClassificationFailureDeclines(t *testing.T) {
	e, _ := newTestExecutor(
		failingGenerator(errors.New("model down")),
		fixedGenerator("yes"),
		fixedGenerator("should never be called"),
		&stubRetriever{},
	)

	answer := e.Ask(context.Background(), Question{Text: "anything", ThreadID: "t1"})
	if answer.Source != CategoryOffTopic {
		t.Errorf("answer.Source = %q, want %q after classification failure", answer.Source, CategoryOffTopic)
	}
	if answer.Text != offTopicReply {
		t.Errorf("answer.Text = %q, want the fixed decline", answer.Text)
	}
}

func TestAskGenerationFailureFallsBack(t *testing.T) {
	retriever := &stubRetriever{results: []knowledge.Result{passage("d1", "vacation accrual")}}
	e, _ := newTestExecutor(
		fixedGenerator("handbook"),
		fixedGenerator("yes"),
		failingGenerator(errors.New("model down")),
		retriever,
	)

	answer := e.Ask(context.Background(), Question{Text: "What is the vacation policy?", ThreadID: "t1"})
	if answer.Text != fallbackApology {
		t.Errorf("answer.Text = %q, want the fallback apology", answer.Text)
	}
	if answer.Source != CategoryHandbook {
		t.Errorf("answer.Source = %q, want %q (fallback keeps the effective category)", answer.Source, CategoryHandbook)
	}
}

func TestAskSequentialSameThreadOrdering(t *testing.T) {
	e, history := newTestExecutor(
		fixedGenerator("conversational"),
		fixedGenerator("yes"),
		fixedGenerator("hello!"),
		&stubRetriever{},
	)

	e.Ask(context.Background(), Question{Text: "first", ThreadID: "t1"})
	e.Ask(context.Background(), Question{Text: "second", ThreadID: "t1"})

	h := history.Acquire("t1")
	defer h.Release()
	got := h.History()
	if len(got) != 2 {
		t.Fatalf("history has %d exchanges, want 2", len(got))
	}
	if got[0].Question.Text != "first" || got[1].Question.Text != "second" {
		t.Errorf("history order = [%q, %q], want [first, second]",
			got[0].Question.Text, got[1].Question.Text)
	}
}

func TestAskConcurrentDistinctThreads(t *testing.T) {
	defer goleak.VerifyNone(t)

	e, history := newTestExecutor(
		fixedGenerator("conversational"),
		fixedGenerator("yes"),
		fixedGenerator("hello!"),
		&stubRetriever{},
	)

	var wg sync.WaitGroup
	const threads = 10
	for i := range threads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			threadID := fmt.Sprintf("t%d", i)
			e.Ask(context.Background(), Question{Text: "hi", ThreadID: threadID})
			e.Ask(context.Background(), Question{Text: "hi again", ThreadID: threadID})
		}()
	}
	wg.Wait()

	if history.Len() != threads {
		t.Errorf("history tracks %d threads, want %d", history.Len(), threads)
	}
}

func TestAskDeadlineYieldsTimeoutAnswer(t *testing.T) {
	slow := &stubGenerator{fn: func(string) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return "conversational", nil
	}}
	history := NewHistoryStore(nil)
	e := NewExecutor(
		NewClassifier(slow, nil),
		&stubRetriever{},
		NewGrader(fixedGenerator("yes"), 2, nil),
		NewGenerator(fixedGenerator("hello!"), nil),
		history,
		nil,
		WithTimeout(5*time.Millisecond),
	)

	answer := e.Ask(context.Background(), Question{Text: "hi", ThreadID: "t1"})
	if answer.Text != timeoutReply {
		t.Errorf("answer.Text = %q, want the timeout reply", answer.Text)
	}

	// The per-thread lock must have been released.
	done := make(chan struct{})
	go func() {
		h := history.Acquire("t1")
		h.Release()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("thread lock still held after timeout answer")
	}
}

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/atlaslab/handbook/internal/agent"
)

// runAsk answers a single question and prints the result.
func runAsk(args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("usage: handbook ask <question>")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	answer := a.Executor.Ask(ctx, agent.Question{
		Text:     question,
		ThreadID: uuid.NewString(),
	})

	fmt.Println(answer.Text)
	fmt.Printf("\n[source: %s]\n", answer.Source)
	return nil
}

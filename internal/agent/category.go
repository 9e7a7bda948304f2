package agent

import (
	"fmt"
	"strings"
)

// Category is the closed set of intents a question can be classified into.
type Category string

const (
	// CategoryHandbook routes through retrieval and grading.
	CategoryHandbook Category = "handbook"
	// CategoryConversational answers small talk directly from history.
	CategoryConversational Category = "conversational"
	// CategoryOffTopic declines questions outside the handbook domain.
	CategoryOffTopic Category = "off_topic"
	// CategoryNotFound apologizes for in-scope questions the corpus cannot answer.
	CategoryNotFound Category = "not_found"
)

// Categories lists every valid category, in routing order.
func Categories() []Category {
	return []Category{CategoryHandbook, CategoryConversational, CategoryOffTopic, CategoryNotFound}
}

// ParseCategory validates a classifier label against the closed set.
// Leading/trailing whitespace and case are forgiven; anything else is not.
func ParseCategory(label string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(label))) {
	case CategoryHandbook:
		return CategoryHandbook, nil
	case CategoryConversational:
		return CategoryConversational, nil
	case CategoryOffTopic:
		return CategoryOffTopic, nil
	case CategoryNotFound:
		return CategoryNotFound, nil
	default:
		return "", fmt.Errorf("unknown category label %q", label)
	}
}

// Branch is the execution path the router selects for a category.
type Branch int

const (
	// BranchRAG retrieves and grades passages before generating.
	BranchRAG Branch = iota
	// BranchDirect generates directly from conversation history.
	BranchDirect
	// BranchDecline returns the fixed off-topic decline.
	BranchDecline
	// BranchNotFound returns the fixed not-covered apology.
	BranchNotFound
)

// String implements fmt.Stringer for log output.
func (b Branch) String() string {
	switch b {
	case BranchRAG:
		return "rag"
	case BranchDirect:
		return "direct"
	case BranchDecline:
		return "decline"
	case BranchNotFound:
		return "not_found"
	default:
		return fmt.Sprintf("Branch(%d)", int(b))
	}
}

// Route maps a category to its execution branch. Pure and exhaustive:
// a Category constructed through ParseCategory or the constants always
// matches one arm; anything else is a programming error worth a panic.
func Route(c Category) Branch {
	switch c {
	case CategoryHandbook:
		return BranchRAG
	case CategoryConversational:
		return BranchDirect
	case CategoryOffTopic:
		return BranchDecline
	case CategoryNotFound:
		return BranchNotFound
	default:
		panic(fmt.Sprintf("route: unreachable category %q", c))
	}
}

package agent

import (
	"fmt"
	"strings"

	"github.com/atlaslab/handbook/internal/knowledge"
)

// Fixed reply templates. These are returned verbatim; the model is never
// consulted for declined or not-covered questions.
const (
	offTopicReply = "I can only answer questions about the company handbook. " +
		"Please ask me about policies, culture, benefits, or engineering practices."

	notFoundReply = "I couldn't find relevant information about this in the handbook. " +
		"You might want to ask your manager or check internally."

	fallbackApology = "I'm sorry, I'm having trouble answering right now. " +
		"Please try again in a moment."
)

const classifyInstructions = `Classify the intent of the user message into exactly one of:
- "conversational": greetings, small talk, thanks, or questions referring to previous statements (e.g. "tell me more", "why?").
- "handbook": any specific question about company policies, values, or benefits.
- "off_topic": technical or general questions unrelated to the company (e.g. anime, writing code).
- "not_found": only when the message explicitly asks about something you are certain the handbook does not cover.

Respond with the label only, no explanation.`

// classifyPrompt embeds the question and the most recent history turns.
func classifyPrompt(question Question, history []Exchange) string {
	var b strings.Builder
	b.WriteString(classifyInstructions)
	if ctx := historyBlock(history, classifierHistoryTurns); ctx != "" {
		b.WriteString("\n\nConversation so far:\n")
		b.WriteString(ctx)
	}
	b.WriteString("\n\nUser message: ")
	b.WriteString(question.Text)
	return b.String()
}

// gradePrompt asks for a binary relevance verdict on a single candidate.
func gradePrompt(question string, doc knowledge.Document) string {
	return fmt.Sprintf(`You are a relevance grader.
Rules:
- yes: the document contains information useful for answering the question
- no: the document is off topic
- When in doubt, answer yes (partial information counts)

Question: %s

Document:
%s

Is this document relevant to the question? Answer "yes" or "no" only.`, question, doc.Content)
}

// generatePrompt builds the grounded template: context blocks labeled with
// their source titles, then the conversation, then the question.
func generatePrompt(question Question, history []Exchange, docs []knowledge.Document) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant for company employees.\n")
	b.WriteString("Answer based on the context below AND the conversation history.\n")
	b.WriteString("If the user asks for more details about a previous answer, use the history.\n\n")
	b.WriteString("Context:\n")
	for _, doc := range docs {
		title := doc.Metadata["title"]
		if title == "" {
			title = "n/a"
		}
		fmt.Fprintf(&b, "[Source: %s]\n%s\n\n", title, doc.Content)
	}
	if ctx := historyBlock(history, len(history)); ctx != "" {
		b.WriteString("Conversation so far:\n")
		b.WriteString(ctx)
		b.WriteString("\n")
	}
	b.WriteString("\nUser question: ")
	b.WriteString(question.Text)
	return b.String()
}

// conversationalPrompt uses only the most recent turns for small talk.
func conversationalPrompt(question Question, history []Exchange) string {
	var b strings.Builder
	b.WriteString("Friendly assistant for company employees. Respond in the user's language.\n")
	if ctx := historyBlock(history, conversationalHistoryTurns); ctx != "" {
		b.WriteString("\nConversation so far:\n")
		b.WriteString(ctx)
	}
	b.WriteString("\nUser message: ")
	b.WriteString(question.Text)
	return b.String()
}

// History caps: the classifier sees more context than small-talk generation.
const (
	classifierHistoryTurns     = 5
	conversationalHistoryTurns = 3
)

// historyBlock renders the last n exchanges as alternating User/Assistant
// lines. Returns "" for empty history.
func historyBlock(history []Exchange, n int) string {
	if len(history) == 0 || n <= 0 {
		return ""
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	var b strings.Builder
	for _, ex := range history {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", ex.Question.Text, ex.Answer.Text)
	}
	return b.String()
}

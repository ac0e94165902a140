package chat

import (
	"fmt"
	"strings"

	"studyassist/core"
)

const refusalMessage = "Sorry, I don't have this information in the available study materials."

const degradedMessage = "No answer is available right now. Please try again in a moment."

var greetingReplies = []string{
	"Hello! I'm your learning assistant. How can I help you with your study materials today?",
	"Hi there! I'm ready to help you learn — what topic would you like to explore?",
	"Hey! I can help you understand your video and PDF content. What would you like to learn about?",
	"Hello! I can help you find information in your uploaded materials. What interests you?",
	"Hi! I'm your study companion. What's on your mind?",
}

const tutorSystemPrompt = `You are a patient educational assistant answering student questions from their course materials. Use the provided context first. If the materials are partial, expand with accurate, topic-appropriate detail without contradicting them. Structure every response into Explanation, Example, and Key Points.`

const clarificationSystemPrompt = `You are a patient educational assistant. The student is asking you to clarify or elaborate on material they did not fully understand. Re-explain the provided context in simpler terms with concrete examples. Do not contradict the materials. Structure the response into Explanation, Example, and Key Points.`

// buildUserMessage renders the context-plus-question template sent as
// the user message of a generation call.
func buildUserMessage(context, query string, followUp bool) string {
	if followUp {
		return fmt.Sprintf("COURSE MATERIALS CONTEXT:\n%s\n\nSTUDENT FOLLOW-UP QUESTION: %s\n\nThis is a follow-up question. Stay on the same topic as the previous exchange and use the course materials above first.", context, query)
	}
	return fmt.Sprintf("COURSE MATERIALS CONTEXT:\n%s\n\nSTUDENT QUESTION: %s", context, query)
}

// mergeContext joins working-set chunk texts, deduplicated by content
// hash, into the single context block handed to generation.
func mergeContext(docs []core.ScoredDocument) string {
	seen := map[string]struct{}{}
	var parts []string
	for _, doc := range docs {
		text := strings.TrimSpace(doc.Text)
		if text == "" {
			continue
		}
		hash := core.ContentHash(text)
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}

// formatEducational ensures the Explanation / Key Points skeleton on a
// generated answer without a second model call. Answers that already
// carry the structure pass through unchanged.
func formatEducational(answer string) string {
	lower := strings.ToLower(answer)
	if strings.Contains(lower, "explanation") && strings.Contains(lower, "key points") {
		return answer
	}
	var b strings.Builder
	b.WriteString("**Explanation:**\n\n")
	b.WriteString(strings.TrimSpace(answer))
	b.WriteString("\n\n**Key Points:**\n")
	for _, sentence := range keySentences(answer, 3) {
		b.WriteString("- ")
		b.WriteString(sentence)
		b.WriteString("\n")
	}
	return b.String()
}

// keySentences picks the first n non-trivial sentences as bullet
// points.
func keySentences(text string, n int) []string {
	var out []string
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '\n'
	}) {
		s := strings.TrimSpace(raw)
		if len(s) < 20 {
			continue
		}
		out = append(out, s+".")
		if len(out) == n {
			break
		}
	}
	if len(out) == 0 {
		out = []string{"Review the explanation above."}
	}
	return out
}

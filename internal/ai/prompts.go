package ai

import (
	"fmt"
	"strings"

	"github.com/asistanapp/panel-service/internal/domain"
)

// languageNames maps supported locales to the language the assistant should
// answer in.
var languageNames = map[string]string{
	"en": "English",
	"tr": "Turkish",
}

func languageFor(locale string) string {
	if name, ok := languageNames[strings.ToLower(locale)]; ok {
		return name
	}
	return "English"
}

// AssistantSystemPrompt builds the persona for the agent-facing assistant.
func AssistantSystemPrompt(tenantName, locale string) string {
	var b strings.Builder
	b.WriteString("You are an internal assistant for customer support agents")
	if tenantName != "" {
		b.WriteString(fmt.Sprintf(" at %s", tenantName))
	}
	b.WriteString(".\n")
	b.WriteString("You help agents understand customer issues, draft responses and find next steps.\n")
	b.WriteString("Rules:\n")
	b.WriteString(fmt.Sprintf("- Answer in %s.\n", languageFor(locale)))
	b.WriteString("- Be concise. Prefer short paragraphs and bullet points.\n")
	b.WriteString("- When unsure about a fact, say so instead of guessing.")
	return b.String()
}

// SuggestSystemPrompt builds the persona for reply suggestions inside a
// customer conversation.
func SuggestSystemPrompt(tenantName, locale string) string {
	var b strings.Builder
	b.WriteString("You draft replies that a customer support agent")
	if tenantName != "" {
		b.WriteString(fmt.Sprintf(" at %s", tenantName))
	}
	b.WriteString(" can send to a customer.\n")
	b.WriteString("Rules:\n")
	b.WriteString(fmt.Sprintf("- Write in %s.\n", languageFor(locale)))
	b.WriteString("- Write only the reply text, no preamble and no sign-off placeholders.\n")
	b.WriteString("- Stay polite and solution-oriented. Do not promise anything the transcript does not support.")
	return b.String()
}

// HistoryMessages converts transcript entries to wire messages, keeping the
// most recent max entries.
func HistoryMessages(entries []domain.AITranscriptEntry, max int) []Message {
	if max > 0 && len(entries) > max {
		entries = entries[len(entries)-max:]
	}
	messages := make([]Message, 0, len(entries))
	for _, entry := range entries {
		content := strings.TrimSpace(entry.Content)
		if content == "" {
			continue
		}
		role := string(entry.Role)
		if role == "" {
			role = string(domain.AIRoleUser)
		}
		messages = append(messages, Message{Role: role, Content: content})
	}
	return messages
}

// ConversationContext renders a customer conversation as prompt context for
// reply suggestions.
func ConversationContext(conv *domain.Conversation, customerName string, msgs []domain.ConversationMessage, max int) string {
	if max > 0 && len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Conversation %s", conv.Reference))
	if conv.Subject != "" {
		b.WriteString(fmt.Sprintf(" (subject: %s)", conv.Subject))
	}
	b.WriteString("\n")
	if customerName != "" {
		b.WriteString(fmt.Sprintf("Customer: %s\n", customerName))
	}
	b.WriteString("Transcript:\n")
	for _, msg := range msgs {
		if msg.Kind == domain.MessageKindEvent {
			continue
		}
		label := "Agent"
		switch msg.AuthorType {
		case domain.AuthorTypeCustomer:
			label = "Customer"
		case domain.AuthorTypeBot:
			label = "Bot"
		case domain.AuthorTypeSystem:
			continue
		}
		body := strings.TrimSpace(msg.Body)
		if body == "" {
			continue
		}
		if msg.Kind == domain.MessageKindNote {
			label += " (internal note)"
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", label, body))
	}
	return strings.TrimSpace(b.String())
}

package audit

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
)

const openingTemplate = `Please conduct a compliance audit for only the following standards: %s.

Here is the documentation to review:
%s

Auditors, be concise. Review your respective areas and collaborate if software changes affect risk.
Summarize findings as "COMPLIANT" or "NON-COMPLIANT" for key clauses.
End with "AUDIT_COMPLETE".`

// OpeningRequest renders the manager's first message.
func OpeningRequest(standards []string, docs pipeline.Documents) string {
	return fmt.Sprintf(openingTemplate, strings.Join(standards, ", "), RenderDocuments(docs))
}

// RenderDocuments renders each document under a header, in insertion order.
func RenderDocuments(docs pipeline.Documents) string {
	parts := make([]string, 0, docs.Len())
	docs.Each(func(key, text string) {
		parts = append(parts, "--- Document: "+key+" ---\n"+text)
	})
	return strings.Join(parts, "\n\n")
}

// renderTurnPrompt renders the transcript so far and asks speaker to reply.
func renderTurnPrompt(transcript []pipeline.Message, speaker string) string {
	var b strings.Builder
	for _, m := range transcript {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	b.WriteString("Respond as ")
	b.WriteString(speaker)
	b.WriteString(".")
	return b.String()
}

// Extract returns the summary carried by the most recent turn that contains
// the completion marker, with every marker removed. Pass generated turns
// only: the opening request quotes the marker.
func Extract(turns []pipeline.Message) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if strings.Contains(turns[i].Content, CompletionMarker) {
			return strings.TrimSpace(strings.ReplaceAll(turns[i].Content, CompletionMarker, ""))
		}
	}
	return NoSummary
}

// Completed reports whether text ends the conversation.
func Completed(text string) bool {
	return strings.Contains(text, CompletionMarker)
}

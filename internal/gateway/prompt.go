package gateway

import "strings"

// SummaryPrompt builds the checkpoint-summary prompt for content produced
// in the named phase.
func SummaryPrompt(content, phaseLabel string) string {
	var b strings.Builder
	b.WriteString(`Based on the provided content from the "`)
	b.WriteString(phaseLabel)
	b.WriteString(`" phase of a design sprint, create a concise summary. `)
	b.WriteString("This summary should capture the key outcomes, decisions, and insights, making it suitable as a context-setter for the next sprint phase. ")
	b.WriteString("Distill the information into a clear, actionable paragraph.\n\n")
	b.WriteString("---\nCONTENT TO SUMMARIZE:\n")
	b.WriteString(content)
	b.WriteString("\n---\n\nCONCISE SUMMARY:")
	return b.String()
}

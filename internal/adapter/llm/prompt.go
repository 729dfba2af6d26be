package llm

import "strings"

// BuildPrompt joins the context chunks and the question into the prompt sent
// to the model.
func BuildPrompt(contextChunks []string, question string) string {
	var b strings.Builder
	b.WriteString("Given the following context:\n\n")
	b.WriteString(strings.Join(contextChunks, "\n\n"))
	b.WriteString("\n\nAnswer this:\n")
	b.WriteString(question)
	return b.String()
}

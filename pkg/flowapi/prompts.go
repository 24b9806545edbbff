package flowapi

import "strings"

const basePrompt = `You are a helpful, accurate, and professional assistant.
Respond to the user's questions in a clear and concise manner.
Always be truthful and admit when you don't know something.`

const ragPromptHeader = `You are a helpful, accurate, and professional assistant.
Use ONLY the following information to answer the user's question (use external knowledge only if it will make your answer more complete but do not contradict the provided information):`

const ragPromptFooter = `If the provided information doesn't contain the answer, say "I don't have enough information to answer this question" instead of making up an answer.
Cite the sources of your information when possible.`

// systemPrompt builds the system instruction. With context chunks present,
// they are joined with blank lines into the retrieval-grounded prompt;
// otherwise the generic assistant instruction is used.
func systemPrompt(contextChunks []string) string {
	if len(contextChunks) == 0 {
		return basePrompt
	}
	return ragPromptHeader + "\n\n" + strings.Join(contextChunks, "\n\n") + "\n\n" + ragPromptFooter
}

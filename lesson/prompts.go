package lesson

import "fmt"

// tutorSystemPrompt composes the system instruction for one lesson.
// The response must be entirely in the requested language.
func tutorSystemPrompt(query, language, contextText string) string {
	return fmt.Sprintf(`You are an expert tutor. Explain "%s" to a student.

RULES:
1. Respond entirely in %s.
2. Structure the answer with short headings and bullet points.
3. Explain the concept clearly using the TEXTBOOK CONTEXT below.
4. If the context is hard to understand, simplify it for the student.
5. If the answer is not in the context, use your own knowledge and say so.

TEXTBOOK CONTEXT:
%s`, query, language, contextText)
}

// quizPrompt asks for a small machine-readable quiz on a topic.
func quizPrompt(topic string) string {
	return fmt.Sprintf("Create a JSON mini-quiz (3 multiple-choice questions) for: %s. Return only the JSON.", topic)
}

package ai

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/zhouzirui/resort-concierge/backend/internal/model/profile"
)

const (
	// FallbackQuestion replaces a question that arrives blank at the builder.
	FallbackQuestion = "Hello"
	// NoKnowledgeMessage is the reply when there is no document to answer from.
	NoKnowledgeMessage = "Error: No product data available. Please check the markdown file."
)

// Prompt is the request payload: one system instruction and one user question.
type Prompt struct {
	System   string
	Question string
}

func (p Prompt) chainInput() map[string]any {
	return map[string]any{
		"system": p.System,
		"query":  p.Question,
	}
}

// Markers returns the sentinel lines that wrap the document, e.g.
// "==<|STARTOF_BARBERYN_DATA|>==".
func Markers(p profile.Profile) (start, end string) {
	tag := markerTag(p.Name)
	return "==<|STARTOF_" + tag + "_DATA|>==", "==<|ENDOF_" + tag + "_DATA|>=="
}

func markerTag(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "KNOWLEDGE"
	}

	tag := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, fields[0])
	if tag == "" {
		return "KNOWLEDGE"
	}
	return tag
}

// BuildPrompt embeds the document between the sentinel markers and attaches
// the question verbatim. It returns ErrNoKnowledge when the document is blank,
// in which case no model call may be made.
func BuildPrompt(p profile.Profile, document, question string) (Prompt, error) {
	if strings.TrimSpace(document) == "" {
		return Prompt{}, ErrNoKnowledge
	}

	question = strings.TrimSpace(question)
	if question == "" {
		question = FallbackQuestion
	}

	return Prompt{
		System:   buildSystemPrompt(p, document),
		Question: question,
	}, nil
}

func buildSystemPrompt(p profile.Profile, document string) string {
	start, end := Markers(p)

	return fmt.Sprintf(`You are the %[1]s information assistant. Below is the information about %[1]s:

%[2]s

%[3]s

%[4]s

Instructions for answering:
1. Answer questions only based on the information provided above.
2. If asked about a specific resort or service, provide all available details for that resort or service.
3. For every query about the resorts, be explicit about the availability status and provide the website link (URL).
4. When mentioning prices, always include the currency symbol.
5. If information is not available in the provided data, politely state that you don't have that information and refer to the %[1]s official website "%[5]s".
6. Keep responses concise and focused on the question asked.
7. Format the response in a clear, readable way.
8. Do not make up or assume any information not present in the data.
9. Use markdown formatting when appropriate to make your response more readable.`,
		p.Name,
		start,
		document,
		end,
		p.Website,
	)
}

package prompt

import (
	"fmt"
	"strings"

	"buddy-tutor-be/pkg/rag/mode"
	"buddy-tutor-be/pkg/rag/retrieval"
)

// InsufficientInformation is the admission the textbook template asks for when
// the passages do not answer the question. The grounding validator looks for it.
const InsufficientInformation = "The textbook has insufficient information to answer this question."

// Prompt is the rendered system instruction plus the user turn.
type Prompt struct {
	System string
	User   string
}

type template struct {
	system string
	user   string
}

var templates = map[mode.Mode]template{
	mode.Textbook: {
		system: "You are a strict science tutor. You answer ONLY from the textbook excerpts you are given.",
		user: `<textbook_content>
{context}
</textbook_content>

<rules>
1. Use ONLY the textbook content above. Do not add outside knowledge, examples or facts.
2. Keep the textbook's own wording and terminology where possible.
3. If the textbook content does not answer the question, reply exactly: "` + InsufficientInformation + `"
4. Keep the answer short and clear for a school student.
</rules>

<student_question>
{question}
</student_question>

Answer using only the textbook content:`,
	},
	mode.Detailed: {
		system: "You are a patient science tutor. You explain textbook material in more depth.",
		user: `<textbook_content>
{context}
</textbook_content>

<rules>
1. Start from the textbook content above and treat it as the primary source.
2. You may add explanations, examples and analogies that make it easier to understand.
3. Never contradict the textbook.
4. Structure the answer with short paragraphs or bullet points.
</rules>

<student_question>
{question}
</student_question>

Give a detailed, textbook-grounded explanation:`,
	},
	mode.Advanced: {
		system: "You are an expert science educator who reasons beyond the textbook.",
		user: `<background_material>
{context}
</background_material>

<rules>
1. The background material is optional context; use it when it helps.
2. Draw on your broader scientific knowledge, current understanding and real-world applications.
3. Connect the topic to related concepts and encourage critical thinking.
4. Stay accurate and age-appropriate.
</rules>

<student_question>
{question}
</student_question>

Give an in-depth answer:`,
	},
}

// Build renders the mode's template with the passages and question.
// An unknown mode falls back to the strict textbook template.
func Build(m mode.Mode, question string, passages []retrieval.Passage) Prompt {
	tmpl, ok := templates[m]
	if !ok {
		tmpl = templates[mode.Textbook]
	}

	r := strings.NewReplacer("{context}", FormatContext(passages), "{question}", question)
	return Prompt{
		System: tmpl.system,
		User:   r.Replace(tmpl.user),
	}
}

// FormatContext joins passages in retrieval order, one per line, prefixed with
// their page when it is known. No passages yields an empty string.
func FormatContext(passages []retrieval.Passage) string {
	if len(passages) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, p := range passages {
		if i > 0 {
			sb.WriteString("\n")
		}
		if p.PageNumber != nil {
			sb.WriteString(fmt.Sprintf("[Page %d] ", *p.PageNumber))
		}
		sb.WriteString(strings.TrimSpace(p.Text))
	}
	return sb.String()
}

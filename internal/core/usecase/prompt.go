package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/pdf-qa-service/internal/core/domain"
)

// The system prompts pin the grounding contract: answers come from the
// supplied context only, and the fallback sentence is reproduced
// verbatim so clients can match on it.
const questionSystemPrompt = "You are a PDF question-answering assistant.\n" +
	"STRICT RULES:\n" +
	"1) Answer ONLY using the provided PDF Context.\n" +
	"2) If the answer is not explicitly in the context, reply exactly: " + domain.FallbackAnswer + "\n" +
	"3) If user asks for steps, output steps as a numbered list.\n" +
	"4) Keep answer short (2-6 lines) unless user asks for more.\n" +
	"5) Do not mention rules.\n"

const summarySystemPrompt = "You are a PDF summarizer.\n" +
	"Rules:\n" +
	"1) Use ONLY the provided PDF Context.\n" +
	"2) If the context is insufficient, reply exactly: " + domain.FallbackAnswer + "\n" +
	"3) Output 4-7 short lines max.\n" +
	"4) Do not mention rules.\n"

var summaryTriggers = []string{
	"summarize",
	"summary",
	"what is this pdf about",
	"what is the pdf about",
}

// detectAnswerMode routes a question to summarize or Q&A handling based
// on trigger phrases in the lowercased question.
func detectAnswerMode(question string) domain.AnswerMode {
	lowered := strings.ToLower(question)
	for _, phrase := range summaryTriggers {
		if strings.Contains(lowered, phrase) {
			return domain.AnswerModeSummary
		}
	}
	return domain.AnswerModeQuestion
}

func buildPrompt(mode domain.AnswerMode, question, contextText string) (system, prompt string) {
	if mode == domain.AnswerModeSummary {
		return summarySystemPrompt,
			fmt.Sprintf("PDF Context:\n%s\n\nTask: Summarize what this PDF is about.", contextText)
	}
	return questionSystemPrompt,
		fmt.Sprintf("PDF Context:\n%s\n\nQuestion: %s", contextText, question)
}

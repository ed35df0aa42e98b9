package ai

import (
	"context"
	"fmt"
	"strings"
)

// NoAnswer is the reply whenever the knowledge base cannot support an answer.
const NoAnswer = "I don't know the answer to that question."

// Generator is the part of LLMProvider the answerer needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Answerer answers general questions from retrieved context only.
type Answerer struct {
	retriever *Retriever
	llm       Generator
	topK      int
}

// NewAnswerer accepts nil for either dependency; without both it always
// returns NoAnswer.
func NewAnswerer(retriever *Retriever, llm Generator) *Answerer {
	return &Answerer{retriever: retriever, llm: llm, topK: DefaultTopK}
}

func (a *Answerer) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" || a.retriever == nil || a.llm == nil {
		return NoAnswer, nil
	}
	chunks, err := a.retriever.Search(ctx, question, a.topK)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return NoAnswer, nil
	}
	reply, err := a.llm.Generate(ctx, BuildAnswerPrompt(chunks, question))
	if err != nil {
		return "", fmt.Errorf("answer query: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

func BuildAnswerPrompt(chunks []Chunk, question string) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return fmt.Sprintf(`You are a helpful ride-hailing support assistant.
Answer only from the provided context.
If the context does not answer the question, reply exactly: %s

Context:
%s

Question: %s`, NoAnswer, strings.Join(texts, "\n\n"), question)
}

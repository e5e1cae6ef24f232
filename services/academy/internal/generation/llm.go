package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/drone-academy/services/academy/internal/format"
	"github.com/example/drone-academy/services/academy/internal/llm"
)

const (
	summarySystem = "You are an instructor at a drone training academy. " +
		"Summarize the lesson transcript for a learner in 2-4 short paragraphs. " +
		"Stay factual and only use information present in the transcript."
	questionsSystem = "You are an instructor at a drone training academy. " +
		"Write %d multiple-choice questions that check understanding of the lesson transcript. " +
		"Each question has 4 options with ids A, B, C and D and exactly one correct answer. " +
		"correctAnswer must be the id of the correct option."
)

var optionIDs = []any{"A", "B", "C", "D"}

var summarySchema = &llm.Schema{
	Name:        "lesson-summary",
	Description: "A concise summary of a lesson transcript",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{"type": "string"},
		},
		"required":             []any{"summary"},
		"additionalProperties": false,
	},
}

var questionsSchema = &llm.Schema{
	Name:        "knowledge-check",
	Description: "Multiple-choice questions about a lesson transcript",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"options": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"id":   map[string]any{"type": "string", "enum": optionIDs},
									"text": map[string]any{"type": "string"},
								},
								"required":             []any{"id", "text"},
								"additionalProperties": false,
							},
						},
						"correctAnswer": map[string]any{"type": "string", "enum": optionIDs},
					},
					"required":             []any{"question", "options", "correctAnswer"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

// wireQuestion is the question shape shared by the model schema and the remote service.
type wireQuestion struct {
	Question      string   `json:"question"`
	Options       []Option `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

func fromWire(in []wireQuestion) []Question {
	out := make([]Question, len(in))
	for i, w := range in {
		out[i] = Question{Prompt: w.Question, Options: w.Options, CorrectOptionID: w.CorrectAnswer}
	}
	return out
}

// LLMGenerator implements Generator with structured model output.
type LLMGenerator struct {
	Provider      llm.Provider
	QuestionCount int
	MaxTokens     int
	Log           *zap.Logger
}

func NewLLMGenerator(p llm.Provider, log *zap.Logger) *LLMGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMGenerator{Provider: p, QuestionCount: 5, MaxTokens: 2048, Log: log}
}

func (g *LLMGenerator) Summary(ctx context.Context, transcript []format.Segment) (string, error) {
	text := format.Join(transcript)
	if text == "" {
		return "", &GenerationError{Kind: KindSummary, Message: errEmptyTranscript.Error(), Err: errEmptyTranscript}
	}
	resp, err := g.Provider.Generate(llm.WithPurpose(ctx, string(KindSummary)), llm.Request{
		System:    summarySystem,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "Transcript:\n" + text}},
		Schema:    summarySchema,
		MaxTokens: g.MaxTokens,
	})
	if err != nil {
		return "", generationErr(KindSummary, err)
	}
	var out struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", generationErr(KindSummary, fmt.Errorf("decode summary: %w", err))
	}
	summary := strings.TrimSpace(out.Summary)
	if summary == "" {
		return "", generationErr(KindSummary, errEmptySummary)
	}
	return summary, nil
}

func (g *LLMGenerator) Questions(ctx context.Context, transcript []format.Segment) ([]Question, error) {
	text := format.Join(transcript)
	if text == "" {
		return nil, &GenerationError{Kind: KindQuestions, Message: errEmptyTranscript.Error(), Err: errEmptyTranscript}
	}
	count := g.QuestionCount
	if count <= 0 {
		count = 5
	}
	resp, err := g.Provider.Generate(llm.WithPurpose(ctx, string(KindQuestions)), llm.Request{
		System:    fmt.Sprintf(questionsSystem, count),
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "Transcript:\n" + text}},
		Schema:    questionsSchema,
		MaxTokens: g.MaxTokens,
	})
	if err != nil {
		return nil, generationErr(KindQuestions, err)
	}
	var out struct {
		Questions []wireQuestion `json:"questions"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, generationErr(KindQuestions, fmt.Errorf("decode questions: %w", err))
	}
	qs := fromWire(out.Questions)
	if err := validateAll(qs); err != nil {
		return nil, generationErr(KindQuestions, err)
	}
	g.Log.Debug("questions generated", zap.Int("count", len(qs)))
	return qs, nil
}

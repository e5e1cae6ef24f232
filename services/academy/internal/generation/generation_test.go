package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/drone-academy/services/academy/internal/format"
	"github.com/example/drone-academy/services/academy/internal/llm"
)

var transcript = []format.Segment{
	{Text: "Before every flight, check the propellers for chips.", Start: 0, Duration: 4},
	{Text: "Calibrate the compass away from metal structures.", Start: 4, Duration: 5},
}

func validQuestion() Question {
	return Question{
		Prompt: "Where should the compass be calibrated?",
		Options: []Option{
			{ID: "A", Text: "Next to a car"},
			{ID: "B", Text: "Away from metal structures"},
			{ID: "C", Text: "Indoors"},
		},
		CorrectOptionID: "B",
	}
}

func TestQuestionValidate(t *testing.T) {
	require.NoError(t, validQuestion().Validate())

	cases := map[string]func(q *Question){
		"empty prompt":      func(q *Question) { q.Prompt = "" },
		"one option":        func(q *Question) { q.Options = q.Options[:1] },
		"duplicate id":      func(q *Question) { q.Options[2].ID = "A" },
		"id outside range":  func(q *Question) { q.Options[2].ID = "Z" },
		"no correct match":  func(q *Question) { q.CorrectOptionID = "D" },
		"empty option text": func(q *Question) { q.Options[0].Text = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			q := validQuestion()
			q.Options = append([]Option(nil), q.Options...)
			mutate(&q)
			assert.Error(t, q.Validate())
		})
	}
}

func TestQuestionNormalize(t *testing.T) {
	q := Question{
		Prompt:          "  Which?  ",
		Options:         []Option{{ID: "a", Text: " one "}, {ID: "b ", Text: "two"}},
		CorrectOptionID: "b",
	}
	q.Normalize()
	require.NoError(t, q.Validate())
	assert.Equal(t, "Which?", q.Prompt)
	assert.Equal(t, "B", q.CorrectOptionID)
	assert.True(t, q.HasOption("A"))
	assert.False(t, q.HasOption("a"))
}

func TestLLMGenerator_Summary(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"summary":"  Check propellers and calibrate the compass.  "}`)})
	g := NewLLMGenerator(mock, nil)

	got, err := g.Summary(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, "Check propellers and calibrate the compass.", got)

	require.Len(t, mock.Calls, 1)
	req := mock.Calls[0]
	assert.Equal(t, "lesson-summary", req.Schema.Name)
	assert.Contains(t, req.Messages[0].Content, "check the propellers")
}

func TestLLMGenerator_SummaryEmpty(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"summary":"   "}`)})
	_, err := NewLLMGenerator(mock, nil).Summary(context.Background(), transcript)

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindSummary, ge.Kind)
}

func TestLLMGenerator_EmptyTranscriptSkipsProvider(t *testing.T) {
	mock := llm.NewMockProvider()
	_, err := NewLLMGenerator(mock, nil).Questions(context.Background(), nil)

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindQuestions, ge.Kind)
	assert.Equal(t, 0, mock.CallCount())
}

func TestLLMGenerator_Questions(t *testing.T) {
	body := `{"questions":[{"question":"Where should the compass be calibrated?","options":[{"id":"A","text":"Near a car"},{"id":"B","text":"Away from metal"}],"correctAnswer":"B"}]}`
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(body)})

	qs, err := NewLLMGenerator(mock, nil).Questions(context.Background(), transcript)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "B", qs[0].CorrectOptionID)
	assert.Equal(t, "Away from metal", qs[0].Options[1].Text)
	assert.Contains(t, mock.Calls[0].System, "5 multiple-choice questions")
}

func TestLLMGenerator_QuestionsRejectsUnanswerable(t *testing.T) {
	body := `{"questions":[{"question":"Q?","options":[{"id":"A","text":"x"},{"id":"B","text":"y"}],"correctAnswer":"C"}]}`
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(body)})

	_, err := NewLLMGenerator(mock, nil).Questions(context.Background(), transcript)
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Contains(t, ge.Message, "matches 0 options")
}

func TestLLMGenerator_ProviderError(t *testing.T) {
	upstream := &llm.ErrProviderUnavailable{Err: errors.New("down")}
	mock := llm.NewMockProvider(llm.MockResponse{Err: upstream})

	_, err := NewLLMGenerator(mock, nil).Summary(context.Background(), transcript)
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	var pu *llm.ErrProviderUnavailable
	assert.ErrorAs(t, err, &pu)
}

func TestGenerate_FillsRequestedField(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"summary":"ok"}`)})
	c, err := Generate(context.Background(), NewLLMGenerator(mock, nil), transcript, KindSummary)
	require.NoError(t, err)
	assert.Equal(t, "ok", c.Summary)
	assert.Nil(t, c.Questions)

	_, err = Generate(context.Background(), NewLLMGenerator(mock, nil), transcript, Kind("video"))
	assert.Error(t, err)
}

func newRemote(t *testing.T, h http.HandlerFunc) *RemoteGenerator {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewRemoteGenerator(srv.URL, "svc-key", nil, nil)
}

func TestRemoteGenerator_Summary(t *testing.T) {
	var got remoteRequest
	g := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer svc-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"summary":"Fly safe."}`))
	})

	s, err := g.Summary(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, "Fly safe.", s)
	assert.Equal(t, KindSummary, got.ContentType)
	assert.Len(t, got.Transcript, 2)
}

func TestRemoteGenerator_Questions(t *testing.T) {
	g := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"questions":[{"question":"Q?","options":[{"id":"a","text":"x"},{"id":"b","text":"y"}],"correctAnswer":"a"}]}`))
	})

	qs, err := g.Questions(context.Background(), transcript)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "A", qs[0].CorrectOptionID)
}

func TestRemoteGenerator_ErrorBody(t *testing.T) {
	g := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model overloaded"}`))
	})

	_, err := g.Questions(context.Background(), transcript)
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindQuestions, ge.Kind)
	assert.True(t, strings.Contains(ge.Message, "model overloaded"))
}

func TestRemoteGenerator_ErrorFieldOnSuccessStatus(t *testing.T) {
	g := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"transcript too short"}`))
	})

	_, err := g.Summary(context.Background(), transcript)
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "transcript too short", ge.Message)
}

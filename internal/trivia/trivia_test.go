package trivia

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

func TestOpenTDBClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api.php", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("amount"))
		assert.Equal(t, "multiple", r.URL.Query().Get("type"))
		assert.Equal(t, "easy", r.URL.Query().Get("difficulty"))
		_, _ = w.Write([]byte(`{"response_code":0,"results":[
			{"category":"Science","type":"multiple","difficulty":"easy","question":"What is H&lt;sub&gt;2&lt;/sub&gt;O?","correct_answer":"Water","incorrect_answers":["Salt","Sugar","Rock &amp; Roll"]}
		]}`))
	}))
	defer srv.Close()

	items, err := NewOpenTDBClient(srv.URL, srv.Client()).Fetch(context.Background(), 2, "easy")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "What is H<sub>2</sub>O?", items[0].Text)
	assert.Equal(t, "Water", items[0].Correct)
	assert.Equal(t, []string{"Salt", "Sugar", "Rock & Roll"}, items[0].Incorrect)
}

func TestOpenTDBClient_ResponseCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response_code":1,"results":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenTDBClient(srv.URL, srv.Client()).Fetch(context.Background(), 50, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response code 1")
}

func TestTriviaAPIClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/questions", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`[{"id":"1","category":"geo","question":"Capital of Peru?","correctAnswer":"Lima","incorrectAnswers":["Quito","Bogota"]}]`))
	}))
	defer srv.Close()

	items, err := NewTriviaAPIClient(srv.URL+"/", "k", srv.Client()).Fetch(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, []Item{{Text: "Capital of Peru?", Correct: "Lima", Incorrect: []string{"Quito", "Bogota"}, Category: "geo"}}, items)
}

func TestTriviaAPIClient_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewTriviaAPIClient(srv.URL, "", srv.Client()).Fetch(context.Background(), 1, "")
	assert.Error(t, err)
}

func TestBuildDraft(t *testing.T) {
	items := []Item{
		{Text: "Capital of Peru?", Correct: "Lima", Incorrect: []string{"Quito", "Bogota", "Caracas"}},
		{Text: "   ", Correct: "x", Incorrect: []string{"y"}},
		{Text: "No distractors", Correct: "x"},
		{Text: "2 + 2?", Correct: "4", Incorrect: []string{"3"}},
	}

	d, err := BuildDraft("Imported", "from trivia", true, items, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, "Imported", d.Title)
	assert.True(t, d.IsPublic)
	require.Len(t, d.Questions, 2)

	for i, want := range []Item{items[0], items[3]} {
		q := d.Questions[i]
		assert.Equal(t, want.Text, q.Text)
		assert.ElementsMatch(t, append([]string{want.Correct}, want.Incorrect...), q.Options)
		assert.Equal(t, want.Correct, q.Options[q.CorrectAnswer])
	}
}

func TestBuildDraft_NothingUsable(t *testing.T) {
	_, err := BuildDraft("Empty", "", false, []Item{{Text: "only", Correct: "a"}}, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

package questionsource

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(rt http.RoundTripper) *Client {
	return NewClient(&http.Client{Transport: rt})
}

const sampleDocument = `{
	"data": {
		"data": [
			{
				"id": 7,
				"lang_id": 1,
				"body": [{"order": 1, "type": 1, "value": "Which sign?"}],
				"comment": null,
				"static_order_answers": 0,
				"answers": [
					{"id": 70, "newtest_question_id": 7, "body": [{"order": 1, "type": 1, "value": "Stop"}], "check": 1},
					{"id": 71, "newtest_question_id": 7, "body": [{"order": 1, "type": 1, "value": "Go"}], "check": 0}
				],
				"answer_description": "Red octagon",
				"answer_video": null
			}
		]
	}
}`

func TestFetchDecodesNestedDocument(t *testing.T) {
	var seenURL string
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seenURL = r.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(sampleDocument)),
			Header:     make(http.Header),
		}, nil
	}))

	questions, err := client.Fetch(context.Background(), "https://example.test/data/questions.json")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if seenURL != "https://example.test/data/questions.json" {
		t.Fatalf("unexpected request url %q", seenURL)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}

	q := questions[0]
	if q.ID != 7 || len(q.Answers) != 2 || q.Answers[0].Check != 1 {
		t.Fatalf("unexpected question: %+v", q)
	}
	if q.AnswerDescription == nil || *q.AnswerDescription != "Red octagon" {
		t.Fatalf("answer description not decoded: %+v", q.AnswerDescription)
	}
	if q.AnswerVideo != nil {
		t.Fatalf("expected nil answer video, got %q", *q.AnswerVideo)
	}
}

func TestFetchPropagatesNonOKStatus(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
		}, nil
	}))

	if _, err := client.Fetch(context.Background(), "https://example.test/missing.json"); err == nil {
		t.Fatalf("expected error for non-200 status")
	}
}

func TestDecodeMissingDataYieldsEmptyCatalog(t *testing.T) {
	for _, doc := range []string{`{}`, `{"data": {}}`, `{"data": {"data": null}}`} {
		questions, err := Decode(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("Decode(%s) returned error: %v", doc, err)
		}
		if len(questions) != 0 {
			t.Fatalf("Decode(%s) = %d questions, want 0", doc, len(questions))
		}
	}
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	if _, err := Decode(strings.NewReader("not-json")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadReadsLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	questions, err := Load(context.Background(), nil, path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
}

func TestLoadUsesClientForURLs(t *testing.T) {
	called := false
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"data":{"data":[]}}`)),
			Header:     make(http.Header),
		}, nil
	}))

	if _, err := Load(context.Background(), client, "HTTP://example.test/q.json"); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !called {
		t.Fatalf("expected http client to be used")
	}
}

func TestLoadRequiresSource(t *testing.T) {
	if _, err := Load(context.Background(), nil, "  "); err == nil {
		t.Fatalf("expected error for empty source")
	}
}

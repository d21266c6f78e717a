package questionsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// RawSegment is one ordered piece of a question or answer body.
type RawSegment struct {
	Order int    `json:"order"`
	Type  int    `json:"type"`
	Value string `json:"value"`
}

// RawAnswer mirrors an answer option in the question document.
type RawAnswer struct {
	ID                int          `json:"id"`
	NewtestQuestionID int          `json:"newtest_question_id"`
	Body              []RawSegment `json:"body"`
	Check             int          `json:"check"`
}

// RawQuestion mirrors a question record in the question document.
type RawQuestion struct {
	ID                 int          `json:"id"`
	LangID             int          `json:"lang_id"`
	Body               []RawSegment `json:"body"`
	Comment            *string      `json:"comment"`
	StaticOrderAnswers int          `json:"static_order_answers"`
	Answers            []RawAnswer  `json:"answers"`
	AnswerDescription  *string      `json:"answer_description"`
	AnswerVideo        *string      `json:"answer_video"`
}

type document struct {
	Data *struct {
		Data []RawQuestion `json:"data"`
	} `json:"data"`
}

type Client struct {
	httpClient *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient}
}

// Fetch downloads the question document once. There is no retry.
func (c *Client) Fetch(ctx context.Context, url string) ([]RawQuestion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("question source returned status %d", resp.StatusCode)
	}

	return Decode(resp.Body)
}

// Decode reads a `{"data":{"data":[...]}}` document. A document without
// the nested list decodes to an empty slice.
func Decode(r io.Reader) ([]RawQuestion, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode question document: %w", err)
	}
	if doc.Data == nil || doc.Data.Data == nil {
		return []RawQuestion{}, nil
	}
	return doc.Data.Data, nil
}

func ReadFile(path string) ([]RawQuestion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f)
}

// Load reads from an http(s) URL through client, or from a local file otherwise.
func Load(ctx context.Context, client *Client, source string) ([]RawQuestion, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("question source is not configured")
	}

	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if client == nil {
			client = NewClient(nil)
		}
		return client.Fetch(ctx, source)
	}
	return ReadFile(source)
}

package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

var ErrServiceUnavailable = errors.New("quiz service unavailable")

type APIError struct {
	StatusCode int
	Message    string
	// Remaining is set when the server refuses to finish an incomplete test.
	Remaining int
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

type createPlayerResponse struct {
	PlayerID string `json:"player_id"`
}

type optionItem struct {
	Letter  string `json:"letter"`
	Text    string `json:"text"`
	Correct *bool  `json:"correct,omitempty"`
	Picked  bool   `json:"picked"`
}

type questionItem struct {
	ID          int          `json:"id"`
	Text        string       `json:"text"`
	Images      []string     `json:"images,omitempty"`
	Options     []optionItem `json:"options"`
	Explanation string       `json:"explanation,omitempty"`
}

type groupStat struct {
	Correct    int `json:"correct"`
	Attempted  int `json:"attempted"`
	TimesTaken int `json:"times_taken"`
	Average    int `json:"average"`
}

type resultPayload struct {
	Mode          string     `json:"mode"`
	GroupIndex    int        `json:"group_index"`
	Score         int        `json:"score"`
	Total         int        `json:"total"`
	Attempted     int        `json:"attempted"`
	Percentage    int        `json:"percentage"`
	TimeSpent     string     `json:"time_spent"`
	Forced        bool       `json:"forced"`
	GroupStat     *groupStat `json:"group_stat,omitempty"`
	TotalAttempts int        `json:"total_attempts"`
}

type sessionPayload struct {
	Mode                string         `json:"mode"`
	GroupIndex          int            `json:"group_index"`
	Current             int            `json:"current"`
	Total               int            `json:"total"`
	AnsweredCount       int            `json:"answered_count"`
	AllAnswered         bool           `json:"all_answered"`
	RemainingSeconds    int            `json:"remaining_seconds"`
	Clock               string         `json:"clock"`
	Warning             bool           `json:"warning"`
	Answered            bool           `json:"answered"`
	Selected            *int           `json:"selected,omitempty"`
	ExplanationExpanded bool           `json:"explanation_expanded"`
	Question            questionItem   `json:"question"`
	Result              *resultPayload `json:"result,omitempty"`
}

type groupItem struct {
	Index int        `json:"index"`
	Label string     `json:"label"`
	Size  int        `json:"size"`
	Stat  *groupStat `json:"stat,omitempty"`
}

type catalogPayload struct {
	QuestionCount int         `json:"question_count"`
	Groups        []groupItem `json:"groups"`
	TotalAttempts int         `json:"total_attempts"`
}

type startGroupRequest struct {
	GroupIndex int `json:"group_index"`
}

type startRandomRequest struct {
	Count int `json:"count,omitempty"`
}

type answerRequest struct {
	Option int `json:"option"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Remaining int    `json:"remaining,omitempty"`
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *HTTPClient) CreatePlayer(ctx context.Context) (string, error) {
	var payload createPlayerResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/players", nil, &payload); err != nil {
		return "", err
	}
	if strings.TrimSpace(payload.PlayerID) == "" {
		return "", errors.New("server returned an empty player id")
	}
	return payload.PlayerID, nil
}

func (c *HTTPClient) Catalog(ctx context.Context, playerID string) (catalogPayload, error) {
	var payload catalogPayload
	if err := c.doJSON(ctx, http.MethodGet, playerPath(playerID, "/catalog"), nil, &payload); err != nil {
		return catalogPayload{}, err
	}
	return payload, nil
}

func (c *HTTPClient) StartGroup(ctx context.Context, playerID string, groupIndex int) (sessionPayload, error) {
	return c.sessionCall(ctx, http.MethodPost, playerID, "/session/group", startGroupRequest{GroupIndex: groupIndex})
}

// StartRandom asks for count random questions. Zero leaves the count to the server.
func (c *HTTPClient) StartRandom(ctx context.Context, playerID string, count int) (sessionPayload, error) {
	var body any
	if count > 0 {
		body = startRandomRequest{Count: count}
	}
	return c.sessionCall(ctx, http.MethodPost, playerID, "/session/random", body)
}

func (c *HTTPClient) Session(ctx context.Context, playerID string) (sessionPayload, error) {
	return c.sessionCall(ctx, http.MethodGet, playerID, "/session", nil)
}

func (c *HTTPClient) Answer(ctx context.Context, playerID string, option int) (sessionPayload, error) {
	return c.sessionCall(ctx, http.MethodPost, playerID, "/session/answer", answerRequest{Option: option})
}

func (c *HTTPClient) Next(ctx context.Context, playerID string) (sessionPayload, error) {
	return c.sessionCall(ctx, http.MethodPost, playerID, "/session/next", nil)
}

func (c *HTTPClient) Prev(ctx context.Context, playerID string) (sessionPayload, error) {
	return c.sessionCall(ctx, http.MethodPost, playerID, "/session/prev", nil)
}

func (c *HTTPClient) ToggleExplanation(ctx context.Context, playerID string) (sessionPayload, error) {
	return c.sessionCall(ctx, http.MethodPost, playerID, "/session/explanation", nil)
}

func (c *HTTPClient) Finish(ctx context.Context, playerID string) (resultPayload, error) {
	var payload resultPayload
	if err := c.doJSON(ctx, http.MethodPost, playerPath(playerID, "/session/finish"), nil, &payload); err != nil {
		return resultPayload{}, err
	}
	return payload, nil
}

func (c *HTTPClient) ReturnToCatalog(ctx context.Context, playerID string) error {
	return c.doJSON(ctx, http.MethodDelete, playerPath(playerID, "/session"), nil, nil)
}

func (c *HTTPClient) sessionCall(ctx context.Context, method, playerID, suffix string, requestBody any) (sessionPayload, error) {
	var payload sessionPayload
	if err := c.doJSON(ctx, method, playerPath(playerID, suffix), requestBody, &payload); err != nil {
		return sessionPayload{}, err
	}
	return payload, nil
}

func playerPath(playerID, suffix string) string {
	return "/api/v1/players/" + url.PathEscape(playerID) + suffix
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
			apiErr.Message = strings.TrimSpace(payload.Error)
			apiErr.Remaining = payload.Remaining
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}

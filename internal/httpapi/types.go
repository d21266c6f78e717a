package httpapi

import "quiz-trainer/internal/quiz"

type createPlayerResponse struct {
	PlayerID string `json:"player_id"`
}

type startGroupRequest struct {
	GroupIndex *int `json:"group_index" binding:"required,min=0"`
}

type startRandomRequest struct {
	Count int `json:"count" binding:"omitempty,min=1,max=500"`
}

type answerRequest struct {
	Option *int `json:"option" binding:"required,min=0"`
}

type optionResponse struct {
	Letter  string         `json:"letter"`
	Text    string         `json:"text"`
	Body    []quiz.Segment `json:"body"`
	Correct *bool          `json:"correct,omitempty"`
	Picked  bool           `json:"picked"`
}

type questionResponse struct {
	ID               int              `json:"id"`
	Text             string           `json:"text"`
	Images           []string         `json:"images,omitempty"`
	Body             []quiz.Segment   `json:"body"`
	Comment          string           `json:"comment,omitempty"`
	Options          []optionResponse `json:"options"`
	Explanation      string           `json:"explanation,omitempty"`
	ExplanationMedia string           `json:"explanation_media,omitempty"`
}

type sessionResponse struct {
	Mode                quiz.Mode        `json:"mode"`
	GroupIndex          int              `json:"group_index"`
	Current             int              `json:"current"`
	Total               int              `json:"total"`
	AnsweredCount       int              `json:"answered_count"`
	AllAnswered         bool             `json:"all_answered"`
	Progress            float64          `json:"progress"`
	RemainingSeconds    int              `json:"remaining_seconds"`
	Clock               string           `json:"clock"`
	Warning             bool             `json:"warning"`
	Answered            bool             `json:"answered"`
	Selected            *int             `json:"selected,omitempty"`
	CorrectOption       string           `json:"correct_option,omitempty"`
	ExplanationExpanded bool             `json:"explanation_expanded"`
	Question            questionResponse `json:"question"`
	Result              *resultResponse  `json:"result,omitempty"`
}

type groupStatResponse struct {
	Correct    int `json:"correct"`
	Attempted  int `json:"attempted"`
	TimesTaken int `json:"times_taken"`
	Average    int `json:"average"`
}

type resultResponse struct {
	Mode           quiz.Mode          `json:"mode"`
	GroupIndex     int                `json:"group_index"`
	Score          int                `json:"score"`
	Total          int                `json:"total"`
	Attempted      int                `json:"attempted"`
	Percentage     int                `json:"percentage"`
	TimeSpent      string             `json:"time_spent"`
	ElapsedSeconds int                `json:"elapsed_seconds"`
	Forced         bool               `json:"forced"`
	GroupStat      *groupStatResponse `json:"group_stat,omitempty"`
	TotalAttempts  int                `json:"total_attempts"`
}

type groupResponse struct {
	Index int                `json:"index"`
	Label string             `json:"label"`
	Size  int                `json:"size"`
	Stat  *groupStatResponse `json:"stat,omitempty"`
}

type catalogResponse struct {
	QuestionCount int             `json:"question_count"`
	GroupSize     int             `json:"group_size"`
	Groups        []groupResponse `json:"groups"`
	TotalAttempts int             `json:"total_attempts"`
}

type errorResponse struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	Remaining int               `json:"remaining,omitempty"`
}

package quiz

import (
	"fmt"
	"math"
)

type Mode string

const (
	ModeGroup  Mode = "group"
	ModeRandom Mode = "random"
)

const unanswered = -1

type session struct {
	seq            uint64
	mode           Mode
	groupIndex     int
	questions      []Question
	selected       []int
	current        int
	score          int
	sessionSeconds int
	remaining      int
	resultVisible  bool
	warned         bool
	explanation    bool
	result         *Result
}

func newSession(seq uint64, mode Mode, groupIndex int, questions []Question, seconds int) *session {
	selected := make([]int, len(questions))
	for idx := range selected {
		selected[idx] = unanswered
	}
	return &session{
		seq:            seq,
		mode:           mode,
		groupIndex:     groupIndex,
		questions:      questions,
		selected:       selected,
		sessionSeconds: seconds,
		remaining:      seconds,
	}
}

func (s *session) answeredCount() int {
	count := 0
	for _, choice := range s.selected {
		if choice != unanswered {
			count++
		}
	}
	return count
}

func (s *session) running() bool {
	return !s.resultVisible
}

func (s *session) view() SessionView {
	answered := s.answeredCount()
	view := SessionView{
		Mode:                s.mode,
		GroupIndex:          s.groupIndex,
		Current:             s.current,
		Total:               len(s.questions),
		Selected:            s.selected[s.current],
		AnsweredCount:       answered,
		AllAnswered:         answered == len(s.questions),
		Progress:            float64(s.current+1) / float64(len(s.questions)),
		RemainingSeconds:    s.remaining,
		ElapsedSeconds:      s.sessionSeconds - s.remaining,
		Warning:             s.warned,
		ExplanationExpanded: s.explanation,
		ResultVisible:       s.resultVisible,
		Question:            s.questions[s.current],
	}
	if s.result != nil {
		result := *s.result
		view.Result = &result
	}
	return view
}

// SessionView is a read-only snapshot of the in-progress (or completed)
// session. GroupIndex is -1 for random sessions.
type SessionView struct {
	Mode                Mode     `json:"mode"`
	GroupIndex          int      `json:"group_index"`
	Current             int      `json:"current"`
	Total               int      `json:"total"`
	Question            Question `json:"question"`
	Selected            int      `json:"selected"`
	AnsweredCount       int      `json:"answered_count"`
	AllAnswered         bool     `json:"all_answered"`
	Progress            float64  `json:"progress"`
	RemainingSeconds    int      `json:"remaining_seconds"`
	ElapsedSeconds      int      `json:"elapsed_seconds"`
	Warning             bool     `json:"warning"`
	ExplanationExpanded bool     `json:"explanation_expanded"`
	ResultVisible       bool     `json:"result_visible"`
	Result              *Result  `json:"result,omitempty"`
}

func (v SessionView) IsAnswered() bool {
	return v.Selected != unanswered
}

func (v SessionView) IsLast() bool {
	return v.Current == v.Total-1
}

// Result is computed once per session at completion.
type Result struct {
	Mode           Mode       `json:"mode"`
	GroupIndex     int        `json:"group_index"`
	Score          int        `json:"score"`
	Total          int        `json:"total"`
	Attempted      int        `json:"attempted"`
	Percentage     int        `json:"percentage"`
	ElapsedSeconds int        `json:"elapsed_seconds"`
	Forced         bool       `json:"forced"`
	GroupStat      *GroupStat `json:"group_stat,omitempty"`
	TotalAttempts  int        `json:"total_attempts"`
}

func (r Result) TimeSpent() string {
	return FormatClock(r.ElapsedSeconds)
}

type GroupView struct {
	Index int        `json:"index"`
	Size  int        `json:"size"`
	Stat  *GroupStat `json:"stat,omitempty"`
}

type CatalogView struct {
	QuestionCount int         `json:"question_count"`
	GroupSize     int         `json:"group_size"`
	Groups        []GroupView `json:"groups"`
	TotalAttempts int         `json:"total_attempts"`
}

// Percentage rounds score/total to a whole percent; 0 when total is 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

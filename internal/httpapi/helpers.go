package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-trainer/internal/quiz"
)

func writeServiceError(c *gin.Context, err error) {
	var incomplete *quiz.IncompleteAnswersError
	switch {
	case errors.As(err, &incomplete):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Error:     "please answer all questions",
			Remaining: incomplete.Remaining,
		})
	case errors.Is(err, errInvalidPlayerID):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "player id must be a uuid"})
	case errors.Is(err, errTooManyPlayers):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "too many active players, try again later"})
	case errors.Is(err, quiz.ErrNoSession):
		c.JSON(http.StatusNotFound, errorResponse{Error: "no active session"})
	case errors.Is(err, quiz.ErrGroupNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "group not found"})
	case errors.Is(err, quiz.ErrEmptyCatalog):
		c.JSON(http.StatusConflict, errorResponse{Error: "question catalog is empty"})
	case errors.Is(err, quiz.ErrOptionOutOfRange):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "answer option out of range"})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

func optionLetter(idx int) string {
	if idx >= 0 && idx < 26 {
		return string(rune('A' + idx))
	}
	return fmt.Sprintf("%d", idx+1)
}

// toSessionResponse hides which option is correct until the current question
// is answered or the session is over.
func toSessionResponse(view quiz.SessionView) sessionResponse {
	question := view.Question
	reveal := view.IsAnswered() || view.ResultVisible

	options := make([]optionResponse, 0, len(question.Options))
	for idx, option := range question.Options {
		item := optionResponse{
			Letter: optionLetter(idx),
			Text:   option.Text(),
			Body:   option.Body,
			Picked: idx == view.Selected,
		}
		if reveal {
			correct := option.Correct
			item.Correct = &correct
		}
		options = append(options, item)
	}

	response := sessionResponse{
		Mode:                view.Mode,
		GroupIndex:          view.GroupIndex,
		Current:             view.Current,
		Total:               view.Total,
		AnsweredCount:       view.AnsweredCount,
		AllAnswered:         view.AllAnswered,
		Progress:            view.Progress,
		RemainingSeconds:    view.RemainingSeconds,
		Clock:               quiz.FormatClock(view.RemainingSeconds),
		Warning:             view.Warning,
		Answered:            view.IsAnswered(),
		ExplanationExpanded: view.ExplanationExpanded,
		Question: questionResponse{
			ID:      question.ID,
			Text:    question.Text(),
			Images:  question.Images(),
			Body:    question.Body,
			Comment: question.Comment,
			Options: options,
		},
	}
	if view.IsAnswered() {
		selected := view.Selected
		response.Selected = &selected
	}
	if correct := question.CorrectIndex(); reveal && correct >= 0 {
		response.CorrectOption = optionLetter(correct)
	}
	if view.ExplanationExpanded {
		response.Question.Explanation = question.Explanation
		response.Question.ExplanationMedia = question.ExplanationMedia
	}
	if view.Result != nil {
		result := toResultResponse(*view.Result)
		response.Result = &result
	}
	return response
}

func toGroupStatResponse(stat *quiz.GroupStat) *groupStatResponse {
	if stat == nil {
		return nil
	}
	return &groupStatResponse{
		Correct:    stat.Correct,
		Attempted:  stat.Attempted,
		TimesTaken: stat.TimesTaken,
		Average:    stat.Average(),
	}
}

func toResultResponse(result quiz.Result) resultResponse {
	return resultResponse{
		Mode:           result.Mode,
		GroupIndex:     result.GroupIndex,
		Score:          result.Score,
		Total:          result.Total,
		Attempted:      result.Attempted,
		Percentage:     result.Percentage,
		TimeSpent:      result.TimeSpent(),
		ElapsedSeconds: result.ElapsedSeconds,
		Forced:         result.Forced,
		GroupStat:      toGroupStatResponse(result.GroupStat),
		TotalAttempts:  result.TotalAttempts,
	}
}

func toCatalogResponse(view quiz.CatalogView) catalogResponse {
	groups := make([]groupResponse, 0, len(view.Groups))
	for _, group := range view.Groups {
		groups = append(groups, groupResponse{
			Index: group.Index,
			Label: fmt.Sprintf("Group %d", group.Index+1),
			Size:  group.Size,
			Stat:  toGroupStatResponse(group.Stat),
		})
	}
	return catalogResponse{
		QuestionCount: view.QuestionCount,
		GroupSize:     view.GroupSize,
		Groups:        groups,
		TotalAttempts: view.TotalAttempts,
	}
}

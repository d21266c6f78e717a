package quiz

import (
	"sort"
	"strings"

	"quiz-trainer/internal/questionsource"
)

// segmentTypeText is the document's type code for text segments; every
// other code is rendered as an image reference.
const segmentTypeText = 1

type SegmentKind string

const (
	SegmentText  SegmentKind = "text"
	SegmentImage SegmentKind = "image"
)

type Segment struct {
	Order int         `json:"order"`
	Kind  SegmentKind `json:"kind"`
	Value string      `json:"value"`
}

type Option struct {
	ID         int       `json:"id"`
	QuestionID int       `json:"question_id"`
	Body       []Segment `json:"body"`
	Correct    bool      `json:"-"`
}

// Question is immutable once built.
type Question struct {
	ID                 int       `json:"id"`
	LangID             int       `json:"lang_id"`
	Body               []Segment `json:"body"`
	Comment            string    `json:"comment,omitempty"`
	Explanation        string    `json:"explanation,omitempty"`
	ExplanationMedia   string    `json:"explanation_media,omitempty"`
	StaticOrderAnswers bool      `json:"static_order_answers"`
	Options            []Option  `json:"options"`
}

func BuildQuestions(raw []questionsource.RawQuestion) []Question {
	questions := make([]Question, 0, len(raw))
	for _, item := range raw {
		questions = append(questions, buildQuestion(item))
	}
	return questions
}

func buildQuestion(raw questionsource.RawQuestion) Question {
	options := make([]Option, 0, len(raw.Answers))
	for _, answer := range raw.Answers {
		options = append(options, Option{
			ID:         answer.ID,
			QuestionID: answer.NewtestQuestionID,
			Body:       buildSegments(answer.Body),
			Correct:    answer.Check == 1,
		})
	}

	return Question{
		ID:                 raw.ID,
		LangID:             raw.LangID,
		Body:               buildSegments(raw.Body),
		Comment:            derefString(raw.Comment),
		Explanation:        derefString(raw.AnswerDescription),
		ExplanationMedia:   derefString(raw.AnswerVideo),
		StaticOrderAnswers: raw.StaticOrderAnswers != 0,
		Options:            options,
	}
}

func buildSegments(raw []questionsource.RawSegment) []Segment {
	segments := make([]Segment, 0, len(raw))
	for _, item := range raw {
		kind := SegmentImage
		if item.Type == segmentTypeText {
			kind = SegmentText
		}
		segments = append(segments, Segment{
			Order: item.Order,
			Kind:  kind,
			Value: strings.TrimSpace(item.Value),
		})
	}
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Order < segments[j].Order
	})
	return segments
}

// Text joins the text segments of the question body in display order.
func (q Question) Text() string {
	return joinText(q.Body)
}

// Images returns the image references of the question body in display order.
func (q Question) Images() []string {
	var images []string
	for _, segment := range q.Body {
		if segment.Kind == SegmentImage {
			images = append(images, segment.Value)
		}
	}
	return images
}

// CorrectIndex returns the index of the first option flagged correct, or -1.
func (q Question) CorrectIndex() int {
	for idx, option := range q.Options {
		if option.Correct {
			return idx
		}
	}
	return -1
}

func (o Option) Text() string {
	return joinText(o.Body)
}

func joinText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment.Kind == SegmentText && segment.Value != "" {
			parts = append(parts, segment.Value)
		}
	}
	return strings.Join(parts, "\n")
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

package quiz

import "math/rand"

// Catalog holds the full question list and its fixed-size groups. It is
// read-only after construction.
type Catalog struct {
	questions []Question
	groups    [][]Question
	groupSize int
}

func NewCatalog(questions []Question, groupSize int) *Catalog {
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}

	owned := make([]Question, len(questions))
	copy(owned, questions)

	return &Catalog{
		questions: owned,
		groups:    chunkQuestions(owned, groupSize),
		groupSize: groupSize,
	}
}

func (c *Catalog) Len() int {
	return len(c.questions)
}

func (c *Catalog) GroupSize() int {
	return c.groupSize
}

func (c *Catalog) GroupCount() int {
	return len(c.groups)
}

// Group returns the questions of the group at index.
func (c *Catalog) Group(index int) ([]Question, bool) {
	if index < 0 || index >= len(c.groups) {
		return nil, false
	}
	return c.groups[index], true
}

// RandomSubset draws count distinct questions uniformly at random. It returns
// every question, shuffled, when the catalog holds fewer than count.
func (c *Catalog) RandomSubset(count int) []Question {
	shuffled := make([]Question, len(c.questions))
	copy(shuffled, c.questions)

	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if count <= 0 || count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

func chunkQuestions(questions []Question, size int) [][]Question {
	groups := make([][]Question, 0, (len(questions)+size-1)/size)
	for start := 0; start < len(questions); start += size {
		end := start + size
		if end > len(questions) {
			end = len(questions)
		}
		groups = append(groups, questions[start:end:end])
	}
	return groups
}

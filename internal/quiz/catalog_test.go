package quiz

import "testing"

func TestNewCatalogChunksInOrder(t *testing.T) {
	catalog := NewCatalog(makeQuestions(45), 20)

	if catalog.GroupCount() != 3 {
		t.Fatalf("expected 3 groups, got %d", catalog.GroupCount())
	}

	wantSizes := []int{20, 20, 5}
	nextID := 1
	for idx, want := range wantSizes {
		group, ok := catalog.Group(idx)
		if !ok {
			t.Fatalf("group %d missing", idx)
		}
		if len(group) != want {
			t.Fatalf("group %d: expected %d questions, got %d", idx, want, len(group))
		}
		for _, question := range group {
			if question.ID != nextID {
				t.Fatalf("group %d: expected question %d, got %d", idx, nextID, question.ID)
			}
			nextID++
		}
	}
}

func TestNewCatalogDefaultsGroupSize(t *testing.T) {
	catalog := NewCatalog(makeQuestions(41), 0)
	if catalog.GroupSize() != DefaultGroupSize || catalog.GroupCount() != 3 {
		t.Fatalf("unexpected size/count: %d/%d", catalog.GroupSize(), catalog.GroupCount())
	}
}

func TestEmptyCatalog(t *testing.T) {
	catalog := NewCatalog(nil, 20)

	if catalog.Len() != 0 || catalog.GroupCount() != 0 {
		t.Fatalf("expected empty catalog, got len=%d groups=%d", catalog.Len(), catalog.GroupCount())
	}
	if _, ok := catalog.Group(0); ok {
		t.Fatalf("expected no group 0")
	}
	if subset := catalog.RandomSubset(20); len(subset) != 0 {
		t.Fatalf("expected empty subset, got %d", len(subset))
	}
}

func TestCatalogGroupAppendDoesNotLeak(t *testing.T) {
	catalog := NewCatalog(makeQuestions(40), 20)
	group, _ := catalog.Group(0)
	_ = append(group, Question{ID: 999})

	next, _ := catalog.Group(1)
	if next[0].ID != 21 {
		t.Fatalf("append on group 0 overwrote group 1: got %d", next[0].ID)
	}
}

func TestRandomSubsetDistinctAndClamped(t *testing.T) {
	catalog := NewCatalog(makeQuestions(30), 20)

	subset := catalog.RandomSubset(20)
	if len(subset) != 20 {
		t.Fatalf("expected 20 questions, got %d", len(subset))
	}
	seen := make(map[int]bool)
	for _, question := range subset {
		if seen[question.ID] {
			t.Fatalf("duplicate question %d", question.ID)
		}
		if question.ID < 1 || question.ID > 30 {
			t.Fatalf("question %d not in catalog", question.ID)
		}
		seen[question.ID] = true
	}

	if all := catalog.RandomSubset(100); len(all) != 30 {
		t.Fatalf("expected clamp to 30, got %d", len(all))
	}

	first, _ := catalog.Group(0)
	if first[0].ID != 1 {
		t.Fatalf("shuffle reordered the catalog")
	}
}

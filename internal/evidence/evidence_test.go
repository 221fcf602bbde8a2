package evidence

import (
	"context"
	"testing"
)

func TestStaticSearcherScoreOrderAndCap(t *testing.T) {
	s := NewStaticSearcher(2)
	s.Add("ada", Snippet{Text: "tides follow the moon", Score: 0.4})
	s.Add("ada", Snippet{Text: "the moon is far", Score: 0.9})
	s.Add("ada", Snippet{Text: "moon phases repeat", Score: 0.7})
	s.Add("brin", Snippet{Text: "moon landings", Score: 1.0})

	hits, err := s.Search(context.Background(), "ada", "tell me about the moon")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2 (capped)", len(hits))
	}
	if hits[0].Score < hits[1].Score {
		t.Fatalf("hits not score-sorted: %+v", hits)
	}
	for _, h := range hits {
		if h.Text == "moon landings" {
			t.Fatal("got another agent's snippet")
		}
	}
}

func TestStaticSearcherNoWordOverlap(t *testing.T) {
	s := NewStaticSearcher(3)
	s.Add("ada", Snippet{Text: "tides follow the moon", Score: 0.4})

	hits, err := s.Search(context.Background(), "ada", "favorite recipes?")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("hits = %+v, want none", hits)
	}
}

func TestNopSearcher(t *testing.T) {
	hits, err := NopSearcher{}.Search(context.Background(), "ada", "anything")
	if err != nil || hits != nil {
		t.Fatalf("got %+v, %v", hits, err)
	}
}

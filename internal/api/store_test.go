package api

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreDraftIDUnique(t *testing.T) {
	s := newMemoryStore()
	r1 := &Response{ID: "r1", FormID: "f1", DraftID: "d1", CreatedAt: time.Now()}
	if err := s.InsertResponseWithAnswers(r1, nil); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	r2 := &Response{ID: "r2", FormID: "f1", DraftID: "d1", CreatedAt: time.Now()}
	if err := s.InsertResponseWithAnswers(r2, nil); !errors.Is(err, ErrDuplicateDraftID) {
		t.Fatalf("expected ErrDuplicateDraftID, got %v", err)
	}
	got, err := s.GetResponseByDraftID("d1")
	if err != nil || got == nil || got.ID != "r1" {
		t.Fatalf("draft lookup should find the first insert, got %+v, %v", got, err)
	}
}

func TestMemoryStoreDeleteFormCascades(t *testing.T) {
	s := newMemoryStore()
	_, _ = s.InsertForm(&Form{ID: "f1", Title: "F"})
	_, _ = s.InsertBlock(&Block{ID: "b1", FormID: "f1"})
	_, _ = s.InsertQuestion(&Question{ID: "q1", FormID: "f1", BlockID: "b1", Key: "k"})

	if err := s.DeleteForm("f1"); err != nil {
		t.Fatalf("delete form: %v", err)
	}
	if b, _ := s.GetBlock("b1"); b != nil {
		t.Fatal("block should be gone with its form")
	}
	if q, _ := s.GetQuestion("q1"); q != nil {
		t.Fatal("question should be gone with its form")
	}
}

func TestMemoryStoreDeleteBlockCascadesToQuestionsOnly(t *testing.T) {
	s := newMemoryStore()
	_, _ = s.InsertForm(&Form{ID: "f1", Title: "F"})
	_, _ = s.InsertBlock(&Block{ID: "b1", FormID: "f1"})
	_, _ = s.InsertQuestion(&Question{ID: "q1", FormID: "f1", BlockID: "b1", Key: "k"})
	_ = s.InsertResponseWithAnswers(
		&Response{ID: "r1", FormID: "f1", DraftID: "d1", CreatedAt: time.Now()},
		[]*Answer{{ID: "a1", ResponseID: "r1", QuestionID: "q1", Value: json.RawMessage(`"x"`)}},
	)

	if err := s.DeleteBlock("b1"); err != nil {
		t.Fatalf("delete block: %v", err)
	}
	if q, _ := s.GetQuestion("q1"); q != nil {
		t.Fatal("question should be gone with its block")
	}
	answers, _ := s.ListAnswersByResponse("r1")
	if len(answers) != 1 {
		t.Fatal("answers must survive question deletion")
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := newMemoryStore()
	_, _ = s.InsertForm(&Form{ID: "f1", Title: "original"})
	f, _ := s.GetForm("f1")
	f.Title = "mutated"
	again, _ := s.GetForm("f1")
	if again.Title != "original" {
		t.Fatal("store must hand out copies, not shared pointers")
	}
}

package memory

import (
	"testing"

	"github.com/akkalak213/edpplatform-sub000/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session := app.NewQuizSession("qs-1", "u1", sampleQuestions(), nil)
	store.Put(session)
	if _, ok := store.Get("qs-1"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("qs-1")
	if _, ok := store.Get("qs-1"); ok {
		t.Fatalf("expected session removed")
	}
}

package bot

import (
	"strings"
	"testing"
	"time"

	"booknotes/pkg/domain"
)

func testBook(title string, status domain.BookStatus, notes int) domain.Book {
	book := domain.Book{
		ID:        title + "-id",
		OwnerID:   1,
		Title:     title,
		Status:    status,
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	for i := 0; i < notes; i++ {
		book.Notes = append(book.Notes, domain.Note{Content: "note", Kind: domain.NoteText})
	}
	return book
}

func TestRenderBookListMarksCurrent(t *testing.T) {
	books := []domain.Book{
		testBook("B", domain.StatusReading, 3),
		testBook("A", domain.StatusFinished, 1),
	}
	out := renderBookList(books, "B-id")
	if !strings.Contains(out, "*B* 🔸") {
		t.Fatalf("current book should carry the marker:\n%s", out)
	}
	if strings.Contains(out, "*A* 🔸") {
		t.Fatalf("non-current book must not carry the marker:\n%s", out)
	}
	if !strings.Contains(out, "✅ *A*") {
		t.Fatalf("finished book should use the finished emoji:\n%s", out)
	}
	if !strings.Contains(out, "3 notes") || !strings.Contains(out, "1 notes") {
		t.Fatalf("note counts missing:\n%s", out)
	}
}

func TestRenderCurrentBook(t *testing.T) {
	out := renderCurrentBook(testBook("Dune", domain.StatusReading, 2))
	for _, want := range []string{"Dune", "2 notes saved", "Status: reading", "March 1, 2025"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderStats(t *testing.T) {
	stats := domain.Stats{
		TotalBooks:    3,
		FinishedCount: 1,
		ReadingCount:  2,
		TotalNotes:    7,
		MostNoted:     testBook("B", domain.StatusReading, 4),
	}
	out := renderStats(stats)
	for _, want := range []string{"3 total", "Finished: 1", "Currently reading: 2", "7 total", "*B* (4 notes)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderReviewIncludesFooter(t *testing.T) {
	out := renderReview(testBook("Dune", domain.StatusReading, 5), "STUB_REVIEW")
	if !strings.Contains(out, "Review: Dune") || !strings.Contains(out, "STUB_REVIEW") {
		t.Fatalf("review body missing:\n%s", out)
	}
	if !strings.Contains(out, "Generated from 5 notes") {
		t.Fatalf("note count missing:\n%s", out)
	}
	if !strings.Contains(out, "generated by AI") {
		t.Fatalf("footer missing:\n%s", out)
	}
}

func TestRenderVoiceSavedEchoesTranscription(t *testing.T) {
	out := renderVoiceSaved(testBook("Dune", domain.StatusReading, 1), "spoken words")
	if !strings.Contains(out, "spoken words") || !strings.Contains(out, "Dune") {
		t.Fatalf("transcription echo missing:\n%s", out)
	}
}

func TestRenderSwitchButton(t *testing.T) {
	if got := renderSwitchButton(testBook("Dune", domain.StatusReading, 2)); got != "Dune (2 notes)" {
		t.Fatalf("unexpected button label %q", got)
	}
}

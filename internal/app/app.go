// Package app implements the book and note state manager: per-user book
// tracking, the current-book pointer, note accumulation, and review
// generation from accumulated notes.
package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"booknotes/internal/util"
	"booknotes/pkg/ai"
	"booknotes/pkg/domain"
	"booknotes/pkg/storage"
	"booknotes/pkg/store"
)

const defaultDisplayName = "Anonymous"

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL  string
	Store        store.Store
	Generator    ai.TextGenerator
	Transcriber  ai.Transcriber
	VoiceArchive storage.ObjectStore
}

// App is the core application service wiring together storage, the
// language model, and the domain state transitions.
type App struct {
	store       store.Store
	generator   ai.TextGenerator
	transcriber ai.Transcriber
	archive     storage.ObjectStore
}

// New constructs the application with database-backed storage.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("text generator required")
	}
	if cfg.Transcriber == nil {
		return nil, fmt.Errorf("transcriber required")
	}
	return &App{
		store:       dataStore,
		generator:   cfg.Generator,
		transcriber: cfg.Transcriber,
		archive:     cfg.VoiceArchive,
	}, nil
}

// EnsureUser registers a user on first contact or refreshes their
// display name and last-active time. Idempotent; never resets the
// current-book pointer.
func (a *App) EnsureUser(userID int64, displayName string) (domain.User, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = defaultDisplayName
	}
	user, err := a.store.EnsureUser(userID, name, time.Now().UTC())
	if err != nil {
		return domain.User{}, fmt.Errorf("ensure user: %w", err)
	}
	return user, nil
}

// StartBook creates a book and makes it current, taking over from any
// prior current book. The prior book is left untouched and stays
// enumerable; starting a book always wins the pointer.
func (a *App) StartBook(userID int64, title string) (domain.Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Book{}, ErrEmptyTitle
	}
	book := domain.Book{
		ID:        util.NewID(),
		OwnerID:   userID,
		Title:     title,
		Status:    domain.StatusReading,
		Notes:     []domain.Note{},
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.CreateBook(book); err != nil {
		return domain.Book{}, fmt.Errorf("create book: %w", err)
	}
	if err := a.store.SetCurrentBook(userID, book.ID); err != nil {
		return domain.Book{}, fmt.Errorf("set current book: %w", err)
	}
	return book, nil
}

// ListBooks returns all of a user's books, newest first. An empty
// slice, not an error, when the user has none.
func (a *App) ListBooks(userID int64) ([]domain.Book, error) {
	books, err := a.store.ListBooksByOwner(userID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// ListActiveBooks returns a user's reading books, newest first.
func (a *App) ListActiveBooks(userID int64) ([]domain.Book, error) {
	books, err := a.store.ListBooksByOwnerAndStatus(userID, domain.StatusReading)
	if err != nil {
		return nil, fmt.Errorf("list active books: %w", err)
	}
	return books, nil
}

// CurrentBook resolves the user's current-book pointer. Returns false
// when the pointer is unset or dangles; a missing target is not an
// error.
func (a *App) CurrentBook(userID int64) (domain.Book, bool, error) {
	user, ok, err := a.store.GetUser(userID)
	if err != nil {
		return domain.Book{}, false, fmt.Errorf("get user: %w", err)
	}
	if !ok || user.CurrentBookID == "" {
		return domain.Book{}, false, nil
	}
	book, ok, err := a.store.GetBook(user.CurrentBookID)
	if err != nil {
		return domain.Book{}, false, fmt.Errorf("get book: %w", err)
	}
	if !ok {
		return domain.Book{}, false, nil
	}
	return book, true, nil
}

// SwitchBook points the user at one of their books. Switching to a
// finished book is allowed; it becomes inspectable as current, but note
// appends against it are rejected.
func (a *App) SwitchBook(userID int64, bookID string) (domain.Book, error) {
	book, ok, err := a.store.GetBook(bookID)
	if err != nil {
		return domain.Book{}, fmt.Errorf("get book: %w", err)
	}
	if !ok || book.OwnerID != userID {
		return domain.Book{}, ErrBookNotFound
	}
	if err := a.store.SetCurrentBook(userID, bookID); err != nil {
		return domain.Book{}, fmt.Errorf("set current book: %w", err)
	}
	return book, nil
}

// currentReadingBook resolves the current book for mutation. A finished
// current book counts as no current book, which also absorbs the crash
// window where a book was finished but the pointer clear did not land.
func (a *App) currentReadingBook(userID int64) (domain.Book, error) {
	book, ok, err := a.CurrentBook(userID)
	if err != nil {
		return domain.Book{}, err
	}
	if !ok || book.Status == domain.StatusFinished {
		return domain.Book{}, ErrNoCurrentBook
	}
	return book, nil
}

// NoteText appends a text note to the user's current book. Returns the
// note and the book it was saved to.
func (a *App) NoteText(ctx context.Context, userID int64, content string, sourceMessageID int) (domain.Note, domain.Book, error) {
	book, err := a.currentReadingBook(userID)
	if err != nil {
		return domain.Note{}, domain.Book{}, err
	}
	note := domain.Note{
		ID:              util.NewID(),
		Content:         content,
		Kind:            domain.NoteText,
		Timestamp:       time.Now().UTC(),
		SourceMessageID: sourceMessageID,
	}
	if err := a.store.AppendNote(book.ID, note); err != nil {
		return domain.Note{}, domain.Book{}, fmt.Errorf("append note: %w", err)
	}
	return note, book, nil
}

// NoteVoice transcribes a voice message and appends the transcript as a
// voice note to the user's current book. The raw audio is archived
// best-effort before transcription when an archive is configured.
func (a *App) NoteVoice(ctx context.Context, userID int64, audio []byte, durationSeconds int, sourceMessageID int) (domain.Note, domain.Book, error) {
	book, err := a.currentReadingBook(userID)
	if err != nil {
		return domain.Note{}, domain.Book{}, err
	}
	noteID := util.NewID()
	if a.archive != nil {
		key := fmt.Sprintf("voice/%d/%s.ogg", userID, noteID)
		if err := a.archive.Put(ctx, key, bytes.NewReader(audio), int64(len(audio)), "audio/ogg"); err != nil {
			slog.Warn("voice archive failed", "user", userID, "key", key, "err", err)
		}
	}
	content, err := a.transcriber.Transcribe(ctx, audio, "ogg")
	if err != nil {
		return domain.Note{}, domain.Book{}, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	note := domain.Note{
		ID:              noteID,
		Content:         content,
		Kind:            domain.NoteVoice,
		Timestamp:       time.Now().UTC(),
		SourceMessageID: sourceMessageID,
		DurationSeconds: durationSeconds,
	}
	if err := a.store.AppendNote(book.ID, note); err != nil {
		return domain.Note{}, domain.Book{}, fmt.Errorf("append note: %w", err)
	}
	return note, book, nil
}

// FinishCurrentBook marks the current book finished and clears the
// pointer. The status write happens before the clear, so a book is
// never left finished while still current; if the clear fails the next
// call lands on a finished current book and clears it again.
func (a *App) FinishCurrentBook(userID int64) (domain.Book, error) {
	book, ok, err := a.CurrentBook(userID)
	if err != nil {
		return domain.Book{}, err
	}
	if !ok {
		return domain.Book{}, ErrNoCurrentBook
	}
	if book.Status == domain.StatusFinished {
		// Leftover pointer from an interrupted finish; repair it.
		if err := a.store.ClearCurrentBook(userID); err != nil {
			return domain.Book{}, fmt.Errorf("clear current book: %w", err)
		}
		return domain.Book{}, ErrNoCurrentBook
	}
	now := time.Now().UTC()
	if err := a.store.FinishBook(book.ID, now); err != nil {
		return domain.Book{}, fmt.Errorf("finish book: %w", err)
	}
	if err := a.store.ClearCurrentBook(userID); err != nil {
		return domain.Book{}, fmt.Errorf("clear current book: %w", err)
	}
	book.Status = domain.StatusFinished
	book.FinishedAt = &now
	return book, nil
}

// Stats aggregates a user's reading activity.
func (a *App) Stats(userID int64) (domain.Stats, error) {
	books, err := a.ListBooks(userID)
	if err != nil {
		return domain.Stats{}, err
	}
	if len(books) == 0 {
		return domain.Stats{}, ErrNoBooks
	}
	stats := domain.Stats{TotalBooks: len(books)}
	best := -1
	for _, book := range books {
		if book.Status == domain.StatusFinished {
			stats.FinishedCount++
		} else {
			stats.ReadingCount++
		}
		stats.TotalNotes += len(book.Notes)
		// Books arrive newest first; >= lets a later (older) book take
		// over on ties, so the earliest-created book wins.
		if len(book.Notes) >= best {
			best = len(book.Notes)
			stats.MostNoted = book
		}
	}
	return stats, nil
}

// GenerateReview composes a prompt from the current book's notes, asks
// the language model for a review, and persists it on success. A failed
// generation leaves no partial review state. Each success overwrites
// the previous review.
func (a *App) GenerateReview(ctx context.Context, userID int64) (string, domain.Book, error) {
	book, ok, err := a.CurrentBook(userID)
	if err != nil {
		return "", domain.Book{}, err
	}
	if !ok {
		return "", domain.Book{}, ErrNoCurrentBook
	}
	prompt, err := ComposeReviewPrompt(book)
	if err != nil {
		return "", book, err
	}
	review, err := a.generator.GenerateText(ctx, reviewSystemPrompt, prompt)
	if err != nil {
		return "", book, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	review = strings.TrimSpace(review)
	now := time.Now().UTC()
	if err := a.store.SetReview(book.ID, review, now); err != nil {
		return "", book, fmt.Errorf("save review: %w", err)
	}
	book.AIReview = review
	book.ReviewGeneratedAt = &now
	return review, book, nil
}

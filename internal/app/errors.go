package app

import "errors"

var (
	// ErrEmptyTitle indicates a book was started without a usable title.
	ErrEmptyTitle = errors.New("book title required")
	// ErrBookNotFound indicates a switch target that does not exist or
	// is not owned by the user.
	ErrBookNotFound = errors.New("book not found")
	// ErrNoCurrentBook indicates an operation that needs a current book
	// while none is set (or the current book is already finished).
	ErrNoCurrentBook       = errors.New("no current book")
	ErrNoNotes             = errors.New("book has no notes")
	ErrNoBooks             = errors.New("no books tracked")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrGenerationFailed    = errors.New("review generation failed")
)

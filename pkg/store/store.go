package store

import (
	"time"

	"booknotes/pkg/domain"
)

// Store defines persistence operations for users, books, and notes.
//
// The current-book pointer and the book status are written through
// narrow single-field setters so concurrent handlers for the same user
// never fall into whole-document read-modify-write races; AppendNote is
// likewise an atomic append, and two concurrent appends to the same
// book must both survive.
type Store interface {
	// users
	EnsureUser(id int64, displayName string, now time.Time) (domain.User, error)
	GetUser(id int64) (domain.User, bool, error)
	SetCurrentBook(userID int64, bookID string) error
	ClearCurrentBook(userID int64) error

	// books
	CreateBook(domain.Book) error
	GetBook(id string) (domain.Book, bool, error)
	ListBooksByOwner(ownerID int64) ([]domain.Book, error)
	ListBooksByOwnerAndStatus(ownerID int64, status domain.BookStatus) ([]domain.Book, error)
	FinishBook(id string, at time.Time) error
	SetReview(id string, review string, at time.Time) error

	// notes
	AppendNote(bookID string, note domain.Note) error
}

package store

import (
	"time"

	"booknotes/pkg/domain"
)

// GORM models used for persistence.
type UserModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement:false"`
	DisplayName   string `gorm:"not null"`
	CurrentBookID *string
	CreatedAt     time.Time `gorm:"not null"`
	LastActiveAt  time.Time `gorm:"not null"`
}

type BookModel struct {
	ID                string    `gorm:"primaryKey"`
	OwnerID           int64     `gorm:"not null;index;index:idx_books_owner_status,priority:1"`
	Title             string    `gorm:"not null"`
	Status            string    `gorm:"not null;index:idx_books_owner_status,priority:2"`
	CreatedAt         time.Time `gorm:"not null;index"`
	FinishedAt        *time.Time
	AIReview          string `gorm:"type:text"`
	ReviewGeneratedAt *time.Time
}

type NoteModel struct {
	ID              string    `gorm:"primaryKey"`
	BookID          string    `gorm:"not null;uniqueIndex:ux_notes_book_position,priority:1"`
	Position        int       `gorm:"not null;uniqueIndex:ux_notes_book_position,priority:2"`
	Content         string    `gorm:"type:text;not null"`
	Kind            string    `gorm:"not null"`
	Timestamp       time.Time `gorm:"not null"`
	SourceMessageID int       `gorm:"not null"`
	DurationSeconds int
}

func userToModel(u domain.User) UserModel {
	model := UserModel{
		ID:           u.ID,
		DisplayName:  u.DisplayName,
		CreatedAt:    u.CreatedAt,
		LastActiveAt: u.LastActiveAt,
	}
	if u.CurrentBookID != "" {
		current := u.CurrentBookID
		model.CurrentBookID = &current
	}
	return model
}

func userFromModel(m UserModel) domain.User {
	user := domain.User{
		ID:           m.ID,
		DisplayName:  m.DisplayName,
		CreatedAt:    m.CreatedAt,
		LastActiveAt: m.LastActiveAt,
	}
	if m.CurrentBookID != nil {
		user.CurrentBookID = *m.CurrentBookID
	}
	return user
}

func bookToModel(b domain.Book) BookModel {
	return BookModel{
		ID:                b.ID,
		OwnerID:           b.OwnerID,
		Title:             b.Title,
		Status:            string(b.Status),
		CreatedAt:         b.CreatedAt,
		FinishedAt:        b.FinishedAt,
		AIReview:          b.AIReview,
		ReviewGeneratedAt: b.ReviewGeneratedAt,
	}
}

func bookFromModel(m BookModel, notes []NoteModel) domain.Book {
	book := domain.Book{
		ID:                m.ID,
		OwnerID:           m.OwnerID,
		Title:             m.Title,
		Status:            domain.BookStatus(m.Status),
		Notes:             make([]domain.Note, 0, len(notes)),
		CreatedAt:         m.CreatedAt,
		FinishedAt:        m.FinishedAt,
		AIReview:          m.AIReview,
		ReviewGeneratedAt: m.ReviewGeneratedAt,
	}
	for _, note := range notes {
		book.Notes = append(book.Notes, noteFromModel(note))
	}
	return book
}

func noteToModel(bookID string, position int, n domain.Note) NoteModel {
	return NoteModel{
		ID:              n.ID,
		BookID:          bookID,
		Position:        position,
		Content:         n.Content,
		Kind:            string(n.Kind),
		Timestamp:       n.Timestamp,
		SourceMessageID: n.SourceMessageID,
		DurationSeconds: n.DurationSeconds,
	}
}

func noteFromModel(m NoteModel) domain.Note {
	return domain.Note{
		ID:              m.ID,
		Content:         m.Content,
		Kind:            domain.NoteKind(m.Kind),
		Timestamp:       m.Timestamp,
		SourceMessageID: m.SourceMessageID,
		DurationSeconds: m.DurationSeconds,
	}
}

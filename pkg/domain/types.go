package domain

import "time"

type BookStatus string

const (
	StatusReading  BookStatus = "reading"
	StatusFinished BookStatus = "finished"
)

type NoteKind string

const (
	NoteText  NoteKind = "text"
	NoteVoice NoteKind = "voice"
)

// User is a chat-platform user tracked by the bot. The ID is the
// platform-assigned user id and is stable across sessions.
type User struct {
	ID            int64     `json:"id"`
	DisplayName   string    `json:"displayName"`
	CurrentBookID string    `json:"currentBookId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	LastActiveAt  time.Time `json:"lastActiveAt"`
}

type Book struct {
	ID                string     `json:"id"`
	OwnerID           int64      `json:"ownerId"`
	Title             string     `json:"title"`
	Status            BookStatus `json:"status"`
	Notes             []Note     `json:"notes"`
	CreatedAt         time.Time  `json:"createdAt"`
	FinishedAt        *time.Time `json:"finishedAt,omitempty"`
	AIReview          string     `json:"aiReview,omitempty"`
	ReviewGeneratedAt *time.Time `json:"reviewGeneratedAt,omitempty"`
}

// Note is one captured thought attached to a book. Notes are immutable
// once appended and keep their insertion order.
type Note struct {
	ID              string    `json:"id"`
	Content         string    `json:"content"`
	Kind            NoteKind  `json:"kind"`
	Timestamp       time.Time `json:"timestamp"`
	SourceMessageID int       `json:"sourceMessageId"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
}

// Stats aggregates a user's reading activity across all their books.
type Stats struct {
	TotalBooks    int  `json:"totalBooks"`
	FinishedCount int  `json:"finishedCount"`
	ReadingCount  int  `json:"readingCount"`
	TotalNotes    int  `json:"totalNotes"`
	MostNoted     Book `json:"mostNoted"`
}

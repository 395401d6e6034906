package store

import (
	"sort"
	"sync"
	"time"

	"booknotes/pkg/domain"
)

// MemoryStore keeps all state in-process. It backs tests and local runs
// without a database.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]domain.User
	books  map[string]domain.Book
	orders map[string]int // book ID -> insertion sequence
	seq    int
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[int64]domain.User),
		books:  make(map[string]domain.Book),
		orders: make(map[string]int),
	}
}

// EnsureUser creates a user with defaults or refreshes name and
// last-active time, leaving the current-book pointer alone.
func (m *MemoryStore) EnsureUser(id int64, displayName string, now time.Time) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		user = domain.User{
			ID:           id,
			DisplayName:  displayName,
			CreatedAt:    now,
			LastActiveAt: now,
		}
		m.users[id] = user
		return user, nil
	}
	user.DisplayName = displayName
	user.LastActiveAt = now
	m.users[id] = user
	return user, nil
}

// GetUser returns a user by ID.
func (m *MemoryStore) GetUser(id int64) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	return user, ok, nil
}

// SetCurrentBook points a user at a book.
func (m *MemoryStore) SetCurrentBook(userID int64, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return nil
	}
	user.CurrentBookID = bookID
	m.users[userID] = user
	return nil
}

// ClearCurrentBook removes the user's current-book pointer.
func (m *MemoryStore) ClearCurrentBook(userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return nil
	}
	user.CurrentBookID = ""
	m.users[userID] = user
	return nil
}

// CreateBook stores a new book record.
func (m *MemoryStore) CreateBook(b domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.orders[b.ID] = m.seq
	m.books[b.ID] = copyBook(b)
	return nil
}

// GetBook returns a book with its notes.
func (m *MemoryStore) GetBook(id string) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	book, ok := m.books[id]
	if !ok {
		return domain.Book{}, false, nil
	}
	return copyBook(book), true, nil
}

// ListBooksByOwner returns a user's books, newest first.
func (m *MemoryStore) ListBooksByOwner(ownerID int64) ([]domain.Book, error) {
	return m.listBooks(func(b domain.Book) bool { return b.OwnerID == ownerID })
}

// ListBooksByOwnerAndStatus returns a user's books with the given status, newest first.
func (m *MemoryStore) ListBooksByOwnerAndStatus(ownerID int64, status domain.BookStatus) ([]domain.Book, error) {
	return m.listBooks(func(b domain.Book) bool {
		return b.OwnerID == ownerID && b.Status == status
	})
}

func (m *MemoryStore) listBooks(match func(domain.Book) bool) ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	books := make([]domain.Book, 0)
	for _, book := range m.books {
		if match(book) {
			books = append(books, copyBook(book))
		}
	}
	// Newest first; equal timestamps fall back to reverse insertion order
	// so the ordering stays deterministic.
	sort.Slice(books, func(i, j int) bool {
		if !books[i].CreatedAt.Equal(books[j].CreatedAt) {
			return books[i].CreatedAt.After(books[j].CreatedAt)
		}
		return m.orders[books[i].ID] > m.orders[books[j].ID]
	})
	return books, nil
}

// FinishBook marks a reading book finished; finished books stay finished.
func (m *MemoryStore) FinishBook(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[id]
	if !ok || book.Status != domain.StatusReading {
		return nil
	}
	book.Status = domain.StatusFinished
	finished := at
	book.FinishedAt = &finished
	m.books[id] = book
	return nil
}

// SetReview stores a generated review, overwriting any prior one.
func (m *MemoryStore) SetReview(id string, review string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[id]
	if !ok {
		return nil
	}
	book.AIReview = review
	generated := at
	book.ReviewGeneratedAt = &generated
	m.books[id] = book
	return nil
}

// AppendNote appends a note to a book under the store lock.
func (m *MemoryStore) AppendNote(bookID string, note domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[bookID]
	if !ok {
		return nil
	}
	book.Notes = append(book.Notes, note)
	m.books[bookID] = book
	return nil
}

func copyBook(b domain.Book) domain.Book {
	out := b
	out.Notes = make([]domain.Note, len(b.Notes))
	copy(out.Notes, b.Notes)
	return out
}

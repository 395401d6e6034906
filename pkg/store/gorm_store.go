package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"booknotes/pkg/domain"
)

const migrateLockID int64 = 82418241

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&UserModel{}, &BookModel{}, &NoteModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// EnsureUser registers a user on first contact or refreshes the display
// name and last-active timestamp on later ones. The current-book pointer
// is never touched on the refresh branch.
func (s *GormStore) EnsureUser(id int64, displayName string, now time.Time) (domain.User, error) {
	var out domain.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var model UserModel
		err := tx.First(&model, "id = ?", id).Error
		if err == gorm.ErrRecordNotFound {
			model = UserModel{
				ID:           id,
				DisplayName:  displayName,
				CreatedAt:    now,
				LastActiveAt: now,
			}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			out = userFromModel(model)
			return nil
		}
		if err != nil {
			return err
		}
		updates := map[string]any{
			"display_name":   displayName,
			"last_active_at": now,
		}
		if err := tx.Model(&UserModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("refresh user: %w", err)
		}
		model.DisplayName = displayName
		model.LastActiveAt = now
		out = userFromModel(model)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return out, nil
}

// GetUser returns a user by ID.
func (s *GormStore) GetUser(id int64) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// SetCurrentBook points a user at a book. Last write wins under
// concurrent switches.
func (s *GormStore) SetCurrentBook(userID int64, bookID string) error {
	return s.db.Model(&UserModel{}).Where("id = ?", userID).
		Update("current_book_id", bookID).Error
}

// ClearCurrentBook removes the user's current-book pointer.
func (s *GormStore) ClearCurrentBook(userID int64) error {
	return s.db.Model(&UserModel{}).Where("id = ?", userID).
		Update("current_book_id", nil).Error
}

// CreateBook stores a new book record.
func (s *GormStore) CreateBook(b domain.Book) error {
	model := bookToModel(b)
	return s.db.Create(&model).Error
}

// GetBook returns a book with its notes in stored order.
func (s *GormStore) GetBook(id string) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	var notes []NoteModel
	if err := s.db.Where("book_id = ?", id).Order("position ASC").Find(&notes).Error; err != nil {
		return domain.Book{}, false, err
	}
	return bookFromModel(model, notes), true, nil
}

// ListBooksByOwner returns a user's books, newest first.
func (s *GormStore) ListBooksByOwner(ownerID int64) ([]domain.Book, error) {
	return s.listBooks("owner_id = ?", ownerID)
}

// ListBooksByOwnerAndStatus returns a user's books with the given status, newest first.
func (s *GormStore) ListBooksByOwnerAndStatus(ownerID int64, status domain.BookStatus) ([]domain.Book, error) {
	return s.listBooks("owner_id = ? AND status = ?", ownerID, string(status))
}

func (s *GormStore) listBooks(cond string, args ...any) ([]domain.Book, error) {
	var models []BookModel
	if err := s.db.Where(cond, args...).Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return []domain.Book{}, nil
	}
	ids := make([]string, 0, len(models))
	for _, model := range models {
		ids = append(ids, model.ID)
	}
	var notes []NoteModel
	if err := s.db.Where("book_id IN ?", ids).Order("position ASC").Find(&notes).Error; err != nil {
		return nil, err
	}
	byBook := make(map[string][]NoteModel, len(models))
	for _, note := range notes {
		byBook[note.BookID] = append(byBook[note.BookID], note)
	}
	books := make([]domain.Book, 0, len(models))
	for _, model := range models {
		books = append(books, bookFromModel(model, byBook[model.ID]))
	}
	return books, nil
}

// FinishBook marks a reading book finished. Finished books stay
// finished; re-finishing is a no-op so finished_at is set exactly once.
func (s *GormStore) FinishBook(id string, at time.Time) error {
	return s.db.Model(&BookModel{}).
		Where("id = ? AND status = ?", id, string(domain.StatusReading)).
		Updates(map[string]any{
			"status":      string(domain.StatusFinished),
			"finished_at": at,
		}).Error
}

// SetReview stores a generated review, overwriting any prior one.
func (s *GormStore) SetReview(id string, review string, at time.Time) error {
	return s.db.Model(&BookModel{}).Where("id = ?", id).
		Updates(map[string]any{
			"ai_review":           review,
			"review_generated_at": at,
		}).Error
}

// AppendNote appends a note to a book. The book row is locked for the
// position assignment so concurrent appends serialize instead of
// colliding; whichever append wins the lock comes first in the stored
// order, and both survive.
func (s *GormStore) AppendNote(bookID string, note domain.Note) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var book BookModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&book, "id = ?", bookID).Error; err != nil {
			return fmt.Errorf("lock book: %w", err)
		}
		var count int64
		if err := tx.Model(&NoteModel{}).Where("book_id = ?", bookID).Count(&count).Error; err != nil {
			return fmt.Errorf("count notes: %w", err)
		}
		model := noteToModel(bookID, int(count), note)
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		return nil
	})
}

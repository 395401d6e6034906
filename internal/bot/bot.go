// Package bot is the Telegram gateway: it polls for updates, resolves
// them to state manager operations, and renders the results back as
// chat replies. All domain logic lives in internal/app.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"booknotes/internal/app"
	"booknotes/internal/dedup"
)

const (
	pollTimeoutSeconds    = 30
	maxConcurrentHandlers = 64
	switchCallbackPrefix  = "switch_"
	maxVoiceBytes         = 20 << 20
)

// Config holds the gateway wiring.
type Config struct {
	Token string
	App   *app.App
	Dedup *dedup.Marker
	Debug bool
}

// Bot runs the Telegram long-polling loop.
type Bot struct {
	api        *tgbotapi.BotAPI
	app        *app.App
	dedup      *dedup.Marker
	httpClient *http.Client
}

// New authenticates against the Telegram Bot API.
func New(cfg Config) (*Bot, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	api.Debug = cfg.Debug
	return &Bot{
		api:   api,
		app:   cfg.App,
		dedup: cfg.Dedup,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Username returns the authenticated bot account name.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Run polls for updates until the context is cancelled. Each update is
// handled on its own goroutine (bounded) so one user's slow
// transcription or review generation never blocks other users.
func (b *Bot) Run(ctx context.Context) error {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = pollTimeoutSeconds
	updates := b.api.GetUpdatesChan(updateCfg)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentHandlers)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			_ = g.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				b.handleUpdate(gctx, update)
				return nil
			})
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("update handler panicked", "update", update.UpdateID, "panic", r)
		}
	}()
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	userID := msg.From.ID
	if _, err := b.app.EnsureUser(userID, msg.From.UserName); err != nil {
		slog.Error("ensure user failed", "user", userID, "err", err)
		b.send(msg.Chat.ID, msgGenericFailed)
		return
	}
	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Voice != nil:
		b.handleVoiceNote(ctx, msg)
	case msg.Text != "":
		b.handleTextNote(ctx, msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.send(chatID, welcomeText)
	case "help":
		b.send(chatID, helpText)
	case "newbook":
		book, err := b.app.StartBook(userID, msg.CommandArguments())
		if err != nil {
			b.replyError(chatID, userID, "newbook", err)
			return
		}
		b.send(chatID, renderBookStarted(book))
	case "mybooks":
		b.handleMyBooks(chatID, userID)
	case "currentbook":
		book, ok, err := b.app.CurrentBook(userID)
		if err != nil {
			b.replyError(chatID, userID, "currentbook", err)
			return
		}
		if !ok {
			b.send(chatID, "📚 No active book set.\n\nUse `/newbook <title>` to start tracking a book!")
			return
		}
		b.send(chatID, renderCurrentBook(book))
	case "switchbook":
		b.handleSwitchBook(chatID, userID)
	case "review":
		b.handleReview(ctx, msg)
	case "finish":
		book, err := b.app.FinishCurrentBook(userID)
		if err != nil {
			b.replyError(chatID, userID, "finish", err)
			return
		}
		b.send(chatID, renderFinished(book))
	case "stats":
		stats, err := b.app.Stats(userID)
		if errors.Is(err, app.ErrNoBooks) {
			b.send(chatID, msgNoStatsYet)
			return
		}
		if err != nil {
			b.replyError(chatID, userID, "stats", err)
			return
		}
		b.send(chatID, renderStats(stats))
	}
}

func (b *Bot) handleMyBooks(chatID int64, userID int64) {
	books, err := b.app.ListBooks(userID)
	if err != nil {
		b.replyError(chatID, userID, "mybooks", err)
		return
	}
	if len(books) == 0 {
		b.send(chatID, msgNoBooksYet)
		return
	}
	currentID := ""
	if current, ok, err := b.app.CurrentBook(userID); err == nil && ok {
		currentID = current.ID
	}
	b.send(chatID, renderBookList(books, currentID))
}

func (b *Bot) handleSwitchBook(chatID int64, userID int64) {
	books, err := b.app.ListActiveBooks(userID)
	if err != nil {
		b.replyError(chatID, userID, "switchbook", err)
		return
	}
	switch len(books) {
	case 0:
		b.send(chatID, msgNoActiveBooks)
		return
	case 1:
		b.send(chatID, renderOnlyActiveBook(books[0]))
		return
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(books))
	for _, book := range books {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(renderSwitchButton(book), switchCallbackPrefix+book.ID),
		))
	}
	reply := tgbotapi.NewMessage(chatID, msgSwitchPrompt)
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(reply); err != nil {
		slog.Error("send switch keyboard failed", "user", userID, "err", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		slog.Warn("answer callback failed", "err", err)
	}
	if query.From == nil || query.Message == nil {
		return
	}
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	data := query.Data
	if !strings.HasPrefix(data, switchCallbackPrefix) {
		return
	}
	bookID := strings.TrimPrefix(data, switchCallbackPrefix)
	book, err := b.app.SwitchBook(userID, bookID)
	if err != nil {
		b.edit(chatID, query.Message.MessageID, b.errorText(err))
		if !errors.Is(err, app.ErrBookNotFound) {
			slog.Error("switch book failed", "user", userID, "book", bookID, "err", err)
		}
		return
	}
	b.edit(chatID, query.Message.MessageID, renderSwitched(book))
}

func (b *Bot) handleTextNote(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	if !b.dedup.FirstSeen(ctx, chatID, msg.MessageID) {
		return
	}
	_, book, err := b.app.NoteText(ctx, userID, msg.Text, msg.MessageID)
	if err != nil {
		b.replyError(chatID, userID, "note-text", err)
		return
	}
	b.send(chatID, renderNoteSaved(book))
}

func (b *Bot) handleVoiceNote(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	if !b.dedup.FirstSeen(ctx, chatID, msg.MessageID) {
		return
	}
	pending, err := b.api.Send(b.markdownMessage(chatID, msgVoicePending))
	if err != nil {
		slog.Error("send pending message failed", "user", userID, "err", err)
		return
	}
	audio, err := b.downloadVoice(ctx, msg.Voice.FileID)
	if err != nil {
		slog.Error("voice download failed", "user", userID, "err", err)
		b.edit(chatID, pending.MessageID, msgVoiceFailed)
		return
	}
	note, book, err := b.app.NoteVoice(ctx, userID, audio, msg.Voice.Duration, msg.MessageID)
	if err != nil {
		if !errors.Is(err, app.ErrNoCurrentBook) {
			slog.Error("voice note failed", "user", userID, "err", err)
		}
		b.edit(chatID, pending.MessageID, b.errorText(err))
		return
	}
	b.edit(chatID, pending.MessageID, renderVoiceSaved(book, note.Content))
}

func (b *Bot) handleReview(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	book, ok, err := b.app.CurrentBook(userID)
	if err != nil {
		b.replyError(chatID, userID, "review", err)
		return
	}
	if !ok {
		b.send(chatID, msgNoCurrentBook)
		return
	}
	if len(book.Notes) == 0 {
		b.send(chatID, renderNoNotesForReview(book))
		return
	}
	pending, err := b.api.Send(b.markdownMessage(chatID, renderReviewPending(book)))
	if err != nil {
		slog.Error("send pending message failed", "user", userID, "err", err)
		return
	}
	review, book, err := b.app.GenerateReview(ctx, userID)
	if err != nil {
		if !errors.Is(err, app.ErrNoNotes) && !errors.Is(err, app.ErrNoCurrentBook) {
			slog.Error("review generation failed", "user", userID, "book", book.ID, "err", err)
		}
		b.edit(chatID, pending.MessageID, b.errorText(err))
		return
	}
	b.edit(chatID, pending.MessageID, renderReview(book, review))
}

// downloadVoice fetches the raw voice payload from Telegram's file API.
func (b *Bot) downloadVoice(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download voice: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download voice: %s", resp.Status)
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxVoiceBytes))
	if err != nil {
		return nil, fmt.Errorf("read voice: %w", err)
	}
	return audio, nil
}

func (b *Bot) markdownMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(b.markdownMessage(chatID, text)); err != nil {
		slog.Error("send message failed", "chat", chatID, "err", err)
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		slog.Error("edit message failed", "chat", chatID, "err", err)
	}
}

// replyError maps a core error to its user-facing text. Unexpected
// failures are logged with context and answered with a generic retry
// message; the typed ones carry actionable guidance.
func (b *Bot) replyError(chatID int64, userID int64, op string, err error) {
	switch {
	case errors.Is(err, app.ErrEmptyTitle),
		errors.Is(err, app.ErrNoCurrentBook),
		errors.Is(err, app.ErrBookNotFound),
		errors.Is(err, app.ErrNoNotes),
		errors.Is(err, app.ErrNoBooks):
		// expected user-state errors, no log
	default:
		slog.Error("command failed", "user", userID, "op", op, "err", err)
	}
	b.send(chatID, b.errorText(err))
}

func (b *Bot) errorText(err error) string {
	switch {
	case errors.Is(err, app.ErrEmptyTitle):
		return msgTitleRequired
	case errors.Is(err, app.ErrNoCurrentBook):
		return msgNoCurrentBook
	case errors.Is(err, app.ErrBookNotFound):
		return msgBookGone
	case errors.Is(err, app.ErrNoBooks):
		return msgNoStatsYet
	case errors.Is(err, app.ErrTranscriptionFailed):
		return msgVoiceFailed
	case errors.Is(err, app.ErrNoNotes):
		return msgNoNotesYet
	case errors.Is(err, app.ErrGenerationFailed):
		return msgReviewFailed
	default:
		return msgGenericFailed
	}
}

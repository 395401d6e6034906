package bot

import (
	"fmt"
	"strings"

	"booknotes/pkg/domain"
)

// Reply texts. All rendering is pure string assembly so it can be
// tested without a live chat connection.

const welcomeText = `📚 *Welcome to BookNotes Bot!*

I help you track your reading notes and generate AI-powered reviews.

*Quick Start:*
• ` + "`/newbook <title>`" + ` - Start tracking a new book
• Send me text or voice messages - I'll save them as notes
• ` + "`/review`" + ` - Generate a review when you're done reading

*Commands:*
• ` + "`/mybooks`" + ` - See all your books
• ` + "`/currentbook`" + ` - Show current book
• ` + "`/switchbook`" + ` - Change active book
• ` + "`/finish`" + ` - Mark current book as finished
• ` + "`/stats`" + ` - Your reading statistics
• ` + "`/help`" + ` - Show this help

Start by creating your first book with ` + "`/newbook <title>`" + `!`

const helpText = `📖 *BookNotes Bot Help*

*Commands:*
• ` + "`/newbook <title>`" + ` - Start a new book
• ` + "`/mybooks`" + ` - List all your books
• ` + "`/currentbook`" + ` - Show current active book
• ` + "`/switchbook`" + ` - Switch to different book
• ` + "`/review`" + ` - Generate AI review of current book
• ` + "`/finish`" + ` - Mark book as finished
• ` + "`/stats`" + ` - Show your reading statistics

*Usage:*
1. Create a book: ` + "`/newbook The Great Gatsby`" + `
2. Send notes as text or voice messages
3. Generate review: ` + "`/review`" + `

*Tips:*
• Voice messages are automatically transcribed
• All notes are saved to your current book
• You can switch between multiple books
• Reviews are generated using AI based on your notes`

const (
	msgTitleRequired = "Please provide a book title: `/newbook The Great Gatsby`"
	msgNoCurrentBook = "📚 No active book set! Use `/newbook <title>` to start tracking a book."
	msgNoBooksYet    = "📚 You haven't started any books yet!\n\nUse `/newbook <title>` to get started."
	msgNoActiveBooks = "📚 No active books found.\n\nUse `/newbook <title>` to start a new book!"
	msgNoStatsYet    = "📊 No reading stats yet!\n\nStart tracking books with `/newbook <title>`"
	msgBookGone      = "📚 That book doesn't exist anymore. Use /mybooks to see your books."
	msgSwitchPrompt  = "📚 *Select a book to switch to:*"
	msgVoicePending  = "🎤 Processing voice note..."
	msgVoiceFailed   = "❌ Sorry, I couldn't process your voice note. Please try again."
	msgNoNotesYet    = "📖 No notes yet on your current book.\n\nAdd some notes first, then I can generate a review!"
	msgReviewFailed  = "❌ Sorry, I couldn't generate a review right now. Please try again later."
	msgGenericFailed = "❌ Something went wrong. Please try again later."
)

func renderBookStarted(book domain.Book) string {
	return fmt.Sprintf("📖 Started tracking *%s*\n\nThis is now your active book. Send me notes and I'll save them!", book.Title)
}

func renderBookList(books []domain.Book, currentID string) string {
	var sb strings.Builder
	sb.WriteString("📚 *Your Books:*\n\n")
	for _, book := range books {
		statusEmoji := "📖"
		if book.Status == domain.StatusFinished {
			statusEmoji = "✅"
		}
		currentMarker := ""
		if book.ID == currentID {
			currentMarker = " 🔸"
		}
		fmt.Fprintf(&sb, "%s *%s*%s\n   • %d notes • %s\n\n",
			statusEmoji, book.Title, currentMarker, len(book.Notes), book.Status)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderCurrentBook(book domain.Book) string {
	return fmt.Sprintf(
		"📖 *Current Book:* %s\n\n📊 *Stats:*\n• %d notes saved\n• Status: %s\n• Started: %s\n\nSend me text or voice messages to add notes!",
		book.Title, len(book.Notes), book.Status, book.CreatedAt.Format("January 2, 2006"))
}

func renderOnlyActiveBook(book domain.Book) string {
	return fmt.Sprintf("📖 You only have one active book: *%s*", book.Title)
}

func renderSwitchButton(book domain.Book) string {
	return fmt.Sprintf("%s (%d notes)", book.Title, len(book.Notes))
}

func renderSwitched(book domain.Book) string {
	return fmt.Sprintf("📖 Switched to *%s*\n\nSend me notes and I'll save them to this book!", book.Title)
}

func renderNoteSaved(book domain.Book) string {
	return fmt.Sprintf("✅ Note saved to *%s*", book.Title)
}

func renderVoiceSaved(book domain.Book, transcription string) string {
	return fmt.Sprintf("✅ Voice note transcribed and saved to *%s*\n\n📝 *Transcription:* %s", book.Title, transcription)
}

func renderReviewPending(book domain.Book) string {
	return fmt.Sprintf("🤖 Generating AI review for *%s*...\n📝 Analyzing %d notes...", book.Title, len(book.Notes))
}

func renderNoNotesForReview(book domain.Book) string {
	return fmt.Sprintf("📖 No notes found for *%s*\n\nAdd some notes first, then I can generate a review!", book.Title)
}

func renderReview(book domain.Book, review string) string {
	return fmt.Sprintf(
		"📖 *Review: %s*\n🤖 _Generated from %d notes_\n\n%s\n\n---\n💡 _This review was generated by AI based on your personal notes_",
		book.Title, len(book.Notes), review)
}

func renderFinished(book domain.Book) string {
	return fmt.Sprintf(
		"✅ *%s* marked as finished!\n\n📊 *Final stats:*\n• %d notes saved\n\nGreat job! Use `/newbook <title>` to start your next book.",
		book.Title, len(book.Notes))
}

func renderStats(stats domain.Stats) string {
	return fmt.Sprintf(
		"📊 *Your Reading Statistics*\n\n📚 *Books:* %d total\n✅ Finished: %d\n📖 Currently reading: %d\n\n📝 *Notes:* %d total\n💫 Most noted: *%s* (%d notes)\n\n🎉 Keep up the great reading!",
		stats.TotalBooks, stats.FinishedCount, stats.ReadingCount,
		stats.TotalNotes, stats.MostNoted.Title, len(stats.MostNoted.Notes))
}

package app

import (
	"fmt"
	"strings"

	"booknotes/pkg/domain"
)

const reviewSystemPrompt = "You are a helpful assistant that creates book reviews based on personal reading notes."

const reviewPromptTemplate = `Based on the following personal reading notes for the book "%s", write a thoughtful and comprehensive book review.

Reading Notes:
%s

Please write a review that covers:
1. Overall impression and rating
2. Key themes and main ideas
3. Strengths and notable aspects
4. Any criticisms or weaknesses mentioned
5. Personal takeaways and recommendations

Write in a personal, engaging tone as if the reader took these notes themselves. Keep it concise but insightful (200-400 words).`

// ComposeReviewPrompt assembles the review prompt from a book's notes.
// Notes appear as 1-indexed "Note {i}: {content}" blocks in stored
// order, joined by blank lines. Deterministic for a given book, which
// keeps review output stable against a stubbed model.
func ComposeReviewPrompt(book domain.Book) (string, error) {
	if len(book.Notes) == 0 {
		return "", ErrNoNotes
	}
	blocks := make([]string, 0, len(book.Notes))
	for i, note := range book.Notes {
		blocks = append(blocks, fmt.Sprintf("Note %d: %s", i+1, note.Content))
	}
	return fmt.Sprintf(reviewPromptTemplate, book.Title, strings.Join(blocks, "\n\n")), nil
}

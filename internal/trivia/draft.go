// Package trivia turns questions from public trivia APIs into quiz drafts.
package trivia

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

// Item is a multiple-choice question as returned by a trivia source.
type Item struct {
	Text      string
	Correct   string
	Incorrect []string
	Category  string
}

// Source fetches up to amount questions; difficulty may be empty.
type Source interface {
	Fetch(ctx context.Context, amount int, difficulty string) ([]Item, error)
}

// BuildDraft shuffles each item's options and records where the correct
// one landed. Items that cannot form a valid question are skipped; the
// resulting draft is validated before it is returned.
func BuildDraft(title, description string, public bool, items []Item, rnd *rand.Rand) (domain.Draft, error) {
	d := domain.Draft{Title: title, Description: description, IsPublic: public}
	for _, it := range items {
		if strings.TrimSpace(it.Text) == "" || strings.TrimSpace(it.Correct) == "" || len(it.Incorrect) == 0 {
			continue
		}
		options := append([]string{it.Correct}, it.Incorrect...)
		rnd.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

		correct := 0
		for i, o := range options {
			if o == it.Correct {
				correct = i
				break
			}
		}
		d.Questions = append(d.Questions, domain.QuestionDraft{Text: it.Text, Options: options, CorrectAnswer: correct})
	}
	if err := d.Validate(); err != nil {
		return domain.Draft{}, fmt.Errorf("build draft: %w", err)
	}
	return d, nil
}

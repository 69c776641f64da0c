package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"quizhost-service/internal/domain"
)

const slugMaxLen = 50

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// ValidateForPublish checks a quiz for structural completeness before it
// may be made publicly playable. All violations are collected so the
// caller can display every problem at once.
func ValidateForPublish(quiz domain.QuizPost) []domain.ValidationError {
	var errs []domain.ValidationError

	if strings.TrimSpace(quiz.Title) == "" {
		errs = append(errs, domain.ValidationError{Field: "title", Message: "Title is required"})
	}
	if len(quiz.Questions) == 0 {
		errs = append(errs, domain.ValidationError{Field: "questions", Message: "Quiz must have at least one question"})
	}

	for i, q := range quiz.Questions {
		field := fmt.Sprintf("question-%d", i)
		if len(q.Choices) < 2 {
			errs = append(errs, domain.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("Question %d must have at least 2 choices", i+1),
			})
		}
		correct := 0
		for _, c := range q.Choices {
			if c.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			errs = append(errs, domain.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("Question %d must have exactly 1 correct choice", i+1),
			})
		}
		if strings.TrimSpace(q.Text) == "" {
			errs = append(errs, domain.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("Question %d text is required", i+1),
			})
		}
		for j, c := range q.Choices {
			if strings.TrimSpace(c.Text) == "" {
				errs = append(errs, domain.ValidationError{
					Field:   fmt.Sprintf("question-%d-choice-%d", i, j),
					Message: fmt.Sprintf("Question %d, Choice %d text is required", i+1, j+1),
				})
			}
		}
	}
	return errs
}

// Slugify derives the base slug for a title: lowercase, runs of
// non-alphanumerics collapsed to a single hyphen, trimmed, capped at 50
// characters.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > slugMaxLen {
		s = strings.Trim(s[:slugMaxLen], "-")
	}
	return s
}

// SlugChecker reports whether a slug is already taken by another quiz.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug, excludeQuizID string) (bool, error)
}

// UniqueSlug resolves slug collisions by appending -2, -3, … to the base
// slug. excludeQuizID skips the quiz's own prior slug when republishing.
func UniqueSlug(ctx context.Context, checker SlugChecker, title, excludeQuizID string) (string, error) {
	base := Slugify(title)
	slug := base
	for counter := 2; ; counter++ {
		taken, err := checker.SlugExists(ctx, slug, excludeQuizID)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

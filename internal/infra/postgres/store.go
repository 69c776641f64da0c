// Package postgres persists quizzes, attempts, scores and the user cache
// through bun on top of the pgdriver connector.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizhost-service/internal/domain"
)

// Store implements the authoring, attempt and user-cache persistence
// surfaces against Postgres.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Open dials Postgres and returns a Store along with the underlying bun
// handle for migrations. Callers own closing the handle.
func Open(dsn string) (*Store, *bun.DB) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return NewStore(db), db
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.QuizPost) error {
	_, err := s.db.NewInsert().Model(quizToRow(quiz)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, id string) (domain.QuizPost, error) {
	row := new(quizRow)
	err := s.db.NewSelect().Model(row).
		Relation("Questions", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("q.position ASC, q.id ASC")
		}).
		Relation("Questions.Choices", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("ch.position ASC, ch.id ASC")
		}).
		Where("qp.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizPost{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizPost{}, fmt.Errorf("get quiz: %w", err)
	}
	return quizFromRow(row), nil
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.QuizPost, error) {
	var rows []*quizRow
	err := s.db.NewSelect().Model(&rows).OrderExpr("qp.created_at DESC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	quizzes := make([]domain.QuizPost, 0, len(rows))
	for _, r := range rows {
		quizzes = append(quizzes, quizFromRow(r))
	}
	return quizzes, nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.QuizPost) error {
	res, err := s.db.NewUpdate().Model(quizToRow(quiz)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	return requireAffected(res, domain.ErrQuizNotFound)
}

// DeleteQuiz removes the quiz and its questions and choices. Attempts and
// score entries reference the quiz weakly and are kept for analytics.
func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*choiceRow)(nil)).
			Where("question_id IN (SELECT id FROM questions WHERE quiz_post_id = ?)", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*questionRow)(nil)).Where("quiz_post_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*quizRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		return requireAffected(res, domain.ErrQuizNotFound)
	})
}

// SlugExists reports whether another quiz already owns the slug.
func (s *Store) SlugExists(ctx context.Context, slug, excludeQuizID string) (bool, error) {
	query := s.db.NewSelect().Model((*quizRow)(nil)).Where("slug = ?", slug)
	if excludeQuizID != "" {
		query = query.Where("id != ?", excludeQuizID)
	}
	exists, err := query.Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("slug exists: %w", err)
	}
	return exists, nil
}

// PublishedQuizBySlug serves the public read path. Only published, active
// quizzes are visible.
func (s *Store) PublishedQuizBySlug(ctx context.Context, slug string) (domain.QuizPost, error) {
	row := new(quizRow)
	err := s.db.NewSelect().Model(row).
		Relation("Questions", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("q.position ASC, q.id ASC")
		}).
		Relation("Questions.Choices", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("ch.position ASC, ch.id ASC")
		}).
		Where("qp.slug = ?", slug).
		Where("qp.status = ?", string(domain.StatusPublished)).
		Where("qp.is_active = TRUE").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizPost{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizPost{}, fmt.Errorf("published quiz by slug: %w", err)
	}
	return quizFromRow(row), nil
}

func (s *Store) CreateQuestion(ctx context.Context, q domain.Question) error {
	_, err := s.db.NewInsert().Model(questionToRow(q)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	row := new(questionRow)
	err := s.db.NewSelect().Model(row).
		Relation("Choices", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("ch.position ASC, ch.id ASC")
		}).
		Where("q.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return questionFromRow(row), nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q domain.Question) error {
	res, err := s.db.NewUpdate().Model(questionToRow(q)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return requireAffected(res, domain.ErrQuestionNotFound)
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*choiceRow)(nil)).Where("question_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*questionRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		return requireAffected(res, domain.ErrQuestionNotFound)
	})
}

func (s *Store) SetQuestionOrder(ctx context.Context, questionID string, order int) error {
	res, err := s.db.NewUpdate().Model((*questionRow)(nil)).
		Set("position = ?", order).
		Where("id = ?", questionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set question order: %w", err)
	}
	return requireAffected(res, domain.ErrQuestionNotFound)
}

func (s *Store) CreateChoice(ctx context.Context, c domain.Choice) error {
	_, err := s.db.NewInsert().Model(choiceToRow(c)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("create choice: %w", err)
	}
	return nil
}

func (s *Store) GetChoice(ctx context.Context, id string) (domain.Choice, error) {
	row := new(choiceRow)
	err := s.db.NewSelect().Model(row).Where("ch.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Choice{}, domain.ErrChoiceNotFound
	}
	if err != nil {
		return domain.Choice{}, fmt.Errorf("get choice: %w", err)
	}
	return choiceFromRow(row), nil
}

func (s *Store) UpdateChoice(ctx context.Context, c domain.Choice) error {
	res, err := s.db.NewUpdate().Model(choiceToRow(c)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update choice: %w", err)
	}
	return requireAffected(res, domain.ErrChoiceNotFound)
}

func (s *Store) DeleteChoice(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*choiceRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete choice: %w", err)
	}
	return requireAffected(res, domain.ErrChoiceNotFound)
}

func (s *Store) ClearCorrectChoices(ctx context.Context, questionID string) error {
	_, err := s.db.NewUpdate().Model((*choiceRow)(nil)).
		Set("is_correct = FALSE").
		Where("question_id = ?", questionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clear correct choices: %w", err)
	}
	return nil
}

func (s *Store) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	_, err := s.db.NewInsert().Model(attemptToRow(attempt)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (s *Store) GetAttempt(ctx context.Context, id string) (domain.Attempt, error) {
	row := new(attemptRow)
	err := s.db.NewSelect().Model(row).Where("a.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return attemptFromRow(row), nil
}

// FinishAttempt moves a pending attempt to finished and writes its answer
// rows in one transaction. The finished_at guard makes the transition
// first-write-wins under concurrent submissions.
func (s *Store) FinishAttempt(ctx context.Context, attemptID string, score, maxScore int, finishedAt time.Time, answers []domain.Answer) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model((*attemptRow)(nil)).
			Set("score = ?", score).
			Set("max_score = ?", maxScore).
			Set("finished_at = ?", finishedAt).
			Where("id = ?", attemptID).
			Where("finished_at IS NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("finish attempt: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			exists, err := tx.NewSelect().Model((*attemptRow)(nil)).Where("id = ?", attemptID).Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return domain.ErrAttemptNotFound
			}
			return domain.ErrAttemptFinished
		}

		if len(answers) == 0 {
			return nil
		}
		rows := make([]*answerRow, 0, len(answers))
		for _, a := range answers {
			rows = append(rows, &answerRow{ID: a.ID, AttemptID: a.AttemptID, QuestionID: a.QuestionID, ChoiceID: a.ChoiceID})
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert answers: %w", err)
		}
		return nil
	})
}

func (s *Store) HasOtherFinishedAttempt(ctx context.Context, quizID, accountID, excludeAttemptID string) (bool, error) {
	exists, err := s.db.NewSelect().Model((*attemptRow)(nil)).
		Where("quiz_post_id = ?", quizID).
		Where("account_id = ?", accountID).
		Where("id != ?", excludeAttemptID).
		Where("finished_at IS NOT NULL").
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("has other finished attempt: %w", err)
	}
	return exists, nil
}

func (s *Store) CreateScoreEntry(ctx context.Context, entry domain.ScoreEntry) error {
	_, err := s.db.NewInsert().Model(scoreEntryToRow(entry)).Exec(ctx)
	if err != nil {
		// attempt_id is unique; a concurrent save loses here.
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
			return domain.ErrScoreAlreadySaved
		}
		return fmt.Errorf("create score entry: %w", err)
	}
	return nil
}

func (s *Store) ScoreEntryExists(ctx context.Context, attemptID string) (bool, error) {
	exists, err := s.db.NewSelect().Model((*scoreEntryRow)(nil)).
		Where("attempt_id = ?", attemptID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("score entry exists: %w", err)
	}
	return exists, nil
}

func (s *Store) ListScoreEntries(ctx context.Context, quizID string) ([]domain.ScoreEntry, error) {
	var rows []*scoreEntryRow
	err := s.db.NewSelect().Model(&rows).
		Where("quiz_post_id = ?", quizID).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list score entries: %w", err)
	}
	entries := make([]domain.ScoreEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, scoreEntryFromRow(r))
	}
	return entries, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := new(userRow)
	err := s.db.NewSelect().Model(row).Where("u.email = ?", email).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return domain.User{ID: row.ID, Email: row.Email, Name: row.Name, AccountID: row.AccountID, CreatedAt: row.CreatedAt}, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	row := &userRow{ID: user.ID, Email: user.Email, Name: user.Name, AccountID: user.AccountID, CreatedAt: user.CreatedAt}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

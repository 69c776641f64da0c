package app

import (
	"context"
	"sort"
	"time"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/identity"
)

// AnalyticsReader fetches the full attempt and score-entry history for
// one quiz. Reports are recomputed from it on every request; there is no
// incremental state.
type AnalyticsReader interface {
	AttemptHistory(ctx context.Context, quizID string) ([]domain.Attempt, error)
	ScoreHistory(ctx context.Context, quizID string) ([]domain.ScoreEntry, error)
}

// QuizReport is the per-quiz summary shown on the admin scores page.
type QuizReport struct {
	QuizID          string         `json:"quizId"`
	TotalAttempts   int            `json:"totalAttempts"`
	SavedScores     int            `json:"savedScores"`
	DistinctDevices int            `json:"distinctDevices"`
	DistinctEmails  int            `json:"distinctEmails"`
	CompletionRate  float64        `json:"completionRate"`
	AverageScore    float64        `json:"averageScore"`
	Devices         []DeviceReport `json:"devices"`
}

// DeviceReport groups a quiz's attempts by device hash.
type DeviceReport struct {
	DeviceHash  string         `json:"deviceHash"`
	ShortHash   string         `json:"shortHash"`
	Attempts    int            `json:"attempts"`
	SavedScores int            `json:"savedScores"`
	BestScore   int            `json:"bestScore"`
	FirstSeen   time.Time      `json:"firstSeen"`
	LastSeen    time.Time      `json:"lastSeen"`
	Emails      map[string]int `json:"emails"`
}

// AnalyticsService wires the reader to the pure aggregation.
type AnalyticsService struct {
	reader AnalyticsReader
}

func NewAnalyticsService(reader AnalyticsReader) *AnalyticsService {
	return &AnalyticsService{reader: reader}
}

func (s *AnalyticsService) Report(ctx context.Context, quizID string) (QuizReport, error) {
	attempts, err := s.reader.AttemptHistory(ctx, quizID)
	if err != nil {
		return QuizReport{}, err
	}
	entries, err := s.reader.ScoreHistory(ctx, quizID)
	if err != nil {
		return QuizReport{}, err
	}
	report := BuildQuizReport(attempts, entries)
	report.QuizID = quizID
	return report, nil
}

// BuildQuizReport aggregates one quiz's history. Pure and read-only:
// completion rate is saved scores over total attempts, average score only
// considers finished attempts, and the per-device breakdown keys on the
// salted device hash so no raw identifiers appear in reports.
func BuildQuizReport(attempts []domain.Attempt, entries []domain.ScoreEntry) QuizReport {
	report := QuizReport{
		TotalAttempts: len(attempts),
		SavedScores:   len(entries),
		Devices:       []DeviceReport{},
	}

	devices := map[string]*DeviceReport{}
	finished := 0
	scoreSum := 0
	for _, a := range attempts {
		if a.Finished() {
			finished++
			scoreSum += a.Score
		}
		if a.DeviceHash == "" {
			continue
		}
		d, ok := devices[a.DeviceHash]
		if !ok {
			d = &DeviceReport{
				DeviceHash: a.DeviceHash,
				ShortHash:  identity.Short(a.DeviceHash),
				FirstSeen:  a.StartedAt,
				LastSeen:   a.StartedAt,
				Emails:     map[string]int{},
			}
			devices[a.DeviceHash] = d
		}
		d.Attempts++
		if a.StartedAt.Before(d.FirstSeen) {
			d.FirstSeen = a.StartedAt
		}
		if a.StartedAt.After(d.LastSeen) {
			d.LastSeen = a.StartedAt
		}
		if a.Finished() && a.Score > d.BestScore {
			d.BestScore = a.Score
		}
	}

	emailHashes := map[string]bool{}
	for _, e := range entries {
		if e.EmailHash != "" {
			emailHashes[e.EmailHash] = true
		}
		if e.DeviceHash == "" {
			continue
		}
		if d, ok := devices[e.DeviceHash]; ok {
			d.SavedScores++
			if e.Email != "" {
				d.Emails[e.Email]++
			}
		}
	}

	report.DistinctDevices = len(devices)
	report.DistinctEmails = len(emailHashes)
	if report.TotalAttempts > 0 {
		report.CompletionRate = float64(report.SavedScores) / float64(report.TotalAttempts) * 100
	}
	if finished > 0 {
		report.AverageScore = float64(scoreSum) / float64(finished)
	}

	for _, d := range devices {
		report.Devices = append(report.Devices, *d)
	}
	sort.Slice(report.Devices, func(i, j int) bool {
		if report.Devices[i].Attempts != report.Devices[j].Attempts {
			return report.Devices[i].Attempts > report.Devices[j].Attempts
		}
		return report.Devices[i].DeviceHash < report.Devices[j].DeviceHash
	})
	return report
}

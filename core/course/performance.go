package course

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Status buckets a student's average grade for portal display.
type Status string

const (
	StatusExcellent        Status = "Excellent"
	StatusGood             Status = "Good"
	StatusAverage          Status = "Average"
	StatusNeedsImprovement Status = "Needs Improvement"
)

const leaderboardSize = 3

var ErrGradeOutOfRange = errors.New("grade out of range")

type (
	// StudentPerformance is computed fresh on every aggregation request;
	// it is never persisted.
	StudentPerformance struct {
		StudentID            string `json:"student_id"`
		Name                 string `json:"name"`
		Email                string `json:"email"`
		AverageGrade         int    `json:"average_grade"`
		CompletedAssignments int    `json:"completed_assignments"`
		TotalAssignments     int    `json:"total_assignments"`
		Status               Status `json:"status"`
	}

	LeaderboardEntry struct {
		Rank         int    `json:"rank"`
		StudentID    string `json:"student_id"`
		Name         string `json:"name"`
		AverageGrade int    `json:"average_grade"`
		Percentage   int    `json:"percentage"`
	}
)

// statusFor buckets an average grade; thresholds are evaluated in order,
// first match wins. A student with no graded submissions averages 0 and
// lands in "Needs Improvement"; "no data" and "poor performance" are
// deliberately not distinguished.
func statusFor(avg int) Status {
	switch {
	case avg >= 90:
		return StatusExcellent
	case avg >= 75:
		return StatusGood
	case avg >= 60:
		return StatusAverage
	default:
		return StatusNeedsImprovement
	}
}

// ComputePerformance transforms a course's enrollment/assignment/submission
// graph into per-student summaries, in enrollment order.
//
// Submissions are collected by scanning every assignment's submission list
// for the student; a submission without feedback, or with ungraded feedback,
// counts towards completion but is excluded from the average (not a zero).
// The completed/total denominator is course-wide. The average is the exact
// mean rounded half-up to an integer.
//
// The input graph must already be scoped to one course and authorized; a
// grade outside [0,100] is a caller contract violation and fails loudly.
func ComputePerformance(c Course) ([]StudentPerformance, error) {
	perfs := make([]StudentPerformance, 0, len(c.Students))
	total := len(c.Assignments)

	for _, st := range c.Students {
		var completed, graded, sum int
		for _, a := range c.Assignments {
			for _, sub := range a.Submissions {
				if sub.StudentID != st.ID {
					continue
				}
				completed++
				if sub.Feedback == nil || sub.Feedback.Grade == nil {
					continue
				}
				grade := *sub.Feedback.Grade
				if grade < 0 || grade > 100 {
					return nil, errors.Wrapf(ErrGradeOutOfRange, "student %s, assignment %s: %d", st.ID, a.ID, grade)
				}
				graded++
				sum += grade
			}
		}

		avg := 0
		if graded > 0 {
			avg = int(math.Round(float64(sum) / float64(graded)))
		}

		perfs = append(perfs, StudentPerformance{
			StudentID:            st.ID,
			Name:                 st.Name,
			Email:                st.Email,
			AverageGrade:         avg,
			CompletedAssignments: completed,
			TotalAssignments:     total,
			Status:               statusFor(avg),
		})
	}
	return perfs, nil
}

// Leaderboard ranks performances descending by average grade and keeps the
// top 3. The sort is stable: ties keep enrollment order, so the result is
// deterministic for a given input. Percentage mirrors AverageGrade; it is
// the same integer under the display name the portals expect.
func Leaderboard(perfs []StudentPerformance) []LeaderboardEntry {
	ranked := make([]StudentPerformance, len(perfs))
	copy(ranked, perfs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AverageGrade > ranked[j].AverageGrade
	})

	if len(ranked) > leaderboardSize {
		ranked = ranked[:leaderboardSize]
	}

	entries := make([]LeaderboardEntry, 0, len(ranked))
	for i, p := range ranked {
		entries = append(entries, LeaderboardEntry{
			Rank:         i + 1,
			StudentID:    p.StudentID,
			Name:         p.Name,
			AverageGrade: p.AverageGrade,
			Percentage:   p.AverageGrade,
		})
	}
	return entries
}

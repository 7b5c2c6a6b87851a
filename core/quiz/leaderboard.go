package quiz

import (
	"sort"

	"github.com/trezcool/shule/core"
)

type LeaderboardEntry struct {
	StudentID     string `json:"studentId"`
	StudentName   string `json:"studentName"`
	StudentEmail  string `json:"studentEmail"`
	ObtainedMarks int    `json:"obtainedMarks"`
	TotalMarks    int    `json:"totalMarks"`
	Percentage    int    `json:"percentage"`
	Rank          int    `json:"rank"`
}

// Percentage returns round(obtained / total * 100), or 0 when total is 0.
func Percentage(obtained, total int) int {
	if total == 0 {
		return 0
	}
	return core.Round(float64(obtained) / float64(total) * 100)
}

// Leaderboard ranks the marks by obtained marks, best first.
// marks must be ordered by submission time: equal scores keep that order and still get distinct,
// strictly sequential ranks (1, 2, 3, ...).
func Leaderboard(marks []MarkDetail) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(marks))
	for _, m := range marks {
		entries = append(entries, LeaderboardEntry{
			StudentID:     m.StudentID,
			StudentName:   m.StudentName,
			StudentEmail:  m.StudentEmail,
			ObtainedMarks: m.ObtainedMarks,
			TotalMarks:    m.TotalMarks,
			Percentage:    Percentage(m.ObtainedMarks, m.TotalMarks),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ObtainedMarks > entries[j].ObtainedMarks
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// AverageMarks returns the rounded mean of the obtained marks, or 0 without marks.
func AverageMarks(marks []MarkDetail) int {
	if len(marks) == 0 {
		return 0
	}
	var sum int
	for _, m := range marks {
		sum += m.ObtainedMarks
	}
	return core.Round(float64(sum) / float64(len(marks)))
}

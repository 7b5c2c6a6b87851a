package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mark(studentID string, obtained, total int) MarkDetail {
	return MarkDetail{
		Mark:        Mark{StudentID: studentID, ObtainedMarks: obtained, TotalMarks: total},
		StudentName: studentID,
	}
}

func TestLeaderboard(t *testing.T) {
	tests := []struct {
		name      string
		marks     []MarkDetail
		wantOrder []string
		wantPct   []int
		wantAvg   int
	}{
		{
			name:      "no submissions",
			marks:     nil,
			wantOrder: []string{},
			wantPct:   []int{},
			wantAvg:   0,
		},
		{
			name:      "ties keep submission order",
			marks:     []MarkDetail{mark("a", 80, 100), mark("b", 80, 100), mark("c", 60, 100)},
			wantOrder: []string{"a", "b", "c"},
			wantPct:   []int{80, 80, 60},
			wantAvg:   73,
		},
		{
			name:      "best score first",
			marks:     []MarkDetail{mark("a", 2, 3), mark("b", 3, 3), mark("c", 0, 3)},
			wantOrder: []string{"b", "a", "c"},
			wantPct:   []int{100, 67, 0},
			wantAvg:   2,
		},
		{
			name:      "zero total",
			marks:     []MarkDetail{mark("a", 0, 0)},
			wantOrder: []string{"a"},
			wantPct:   []int{0},
			wantAvg:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := Leaderboard(tt.marks)
			order := make([]string, 0, len(entries))
			pcts := make([]int, 0, len(entries))
			for i, e := range entries {
				assert.Equal(t, i+1, e.Rank)
				order = append(order, e.StudentID)
				pcts = append(pcts, e.Percentage)
			}
			assert.Equal(t, tt.wantOrder, order)
			assert.Equal(t, tt.wantPct, pcts)
			assert.Equal(t, tt.wantAvg, AverageMarks(tt.marks))
		})
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, Percentage(10, 0))
	assert.Equal(t, 50, Percentage(1, 2))
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 100, Percentage(7, 7))
}

func TestMarksPerQuestion(t *testing.T) {
	assert.Equal(t, 3, MarksPerQuestion(10, 3))
	assert.Equal(t, 10, MarksPerQuestion(10, 1))
	assert.Equal(t, 0, MarksPerQuestion(2, 3))
	assert.Equal(t, 0, MarksPerQuestion(10, 0))
}

func TestQuiz_StatusAt(t *testing.T) {
	start := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	qz := Quiz{StartTime: start, EndTime: start.Add(30 * time.Minute)}

	assert.Equal(t, StatusUpcoming, qz.StatusAt(start.Add(-time.Second)))
	assert.Equal(t, StatusActive, qz.StatusAt(start))
	assert.Equal(t, StatusActive, qz.StatusAt(start.Add(30*time.Minute)))
	assert.Equal(t, StatusExpired, qz.StatusAt(start.Add(30*time.Minute+time.Microsecond)))
}

func TestScore(t *testing.T) {
	questions := []Question{
		{ID: "q1", CorrectOption: "1"},
		{ID: "q2", CorrectOption: "2"},
		{ID: "q3", CorrectOption: "3"},
	}
	tests := []struct {
		name    string
		answers []Answer
		want    int
	}{
		{"no answers", nil, 0},
		{"all correct", []Answer{{"q1", "1"}, {"q2", "2"}, {"q3", "3"}}, 9},
		{"some wrong", []Answer{{"q1", "1"}, {"q2", "4"}}, 3},
		{"first answer counts", []Answer{{"q1", "2"}, {"q1", "1"}}, 0},
		{"unknown question ignored", []Answer{{"q9", "1"}, {"q3", "3"}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(questions, tt.answers, 3))
		})
	}
}

func TestCheckRules(t *testing.T) {
	now := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	question := NewQuestion{Question: "1+1?", OptionA: "1", OptionB: "2", OptionC: "3", OptionD: "4", CorrectOption: "2"}
	valid := func() NewQuiz {
		return NewQuiz{
			Title:      "Quiz",
			StartTime:  now.Add(time.Hour),
			EndTime:    now.Add(90 * time.Minute),
			TotalMarks: 10,
			Questions:  []NewQuestion{question},
		}
	}

	tests := []struct {
		name    string
		mutate  func(nq *NewQuiz)
		wantErr error
	}{
		{"valid", func(nq *NewQuiz) {}, nil},
		{"start in past", func(nq *NewQuiz) { nq.StartTime = now.Add(-time.Minute) }, ErrStartInPast},
		{"start now", func(nq *NewQuiz) { nq.StartTime = now }, ErrStartInPast},
		{"end in past", func(nq *NewQuiz) { nq.EndTime = now.Add(-time.Minute) }, ErrEndInPast},
		{"end before start", func(nq *NewQuiz) { nq.EndTime = nq.StartTime.Add(-time.Minute) }, ErrEndBeforeStart},
		{"end equals start", func(nq *NewQuiz) { nq.EndTime = nq.StartTime }, ErrEndBeforeStart},
		{"exactly 60 minutes", func(nq *NewQuiz) { nq.EndTime = nq.StartTime.Add(MaxDuration) }, nil},
		{"too long", func(nq *NewQuiz) { nq.EndTime = nq.StartTime.Add(MaxDuration + time.Second) }, ErrTooLong},
		{"no questions", func(nq *NewQuiz) { nq.Questions = nil }, ErrNoQuestions},
		{"too many questions", func(nq *NewQuiz) {
			nq.Questions = make([]NewQuestion, MaxQuestions+1)
			for i := range nq.Questions {
				nq.Questions[i] = question
			}
		}, ErrTooManyQuestions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nq := valid()
			tt.mutate(&nq)
			assert.Equal(t, tt.wantErr, checkRules(nq, now))
		})
	}

	t.Run("missing option", func(t *testing.T) {
		nq := valid()
		nq.Questions = append(nq.Questions, NewQuestion{Question: "?", OptionA: "a", OptionB: "b", OptionC: "c", CorrectOption: "1"})
		err := checkRules(nq, now)
		if assert.Error(t, err) {
			assert.Equal(t, "Question 2 must have all four options", err.Error())
		}
	})
}

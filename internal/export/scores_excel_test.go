package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/edutrack/assessment-service/internal/models"
)

func TestAssessmentScores(t *testing.T) {
	stats := &models.AssessmentStatistics{
		AssessmentID: 1,
		Title:        "Quiz 1",
		Rankings: []models.StudentRanking{
			{Rank: 1, StudentName: "Bea", Section: "A", TotalScore: 5, MaxScore: 5, Percentage: 100, Graded: true},
			{Rank: 2, StudentName: "Al", Section: "B", TotalScore: 2, MaxScore: 3, Percentage: 66.6666, Graded: false},
		},
	}
	questions := []models.QuestionStatistics{
		{OrderIndex: 1, Type: models.MultipleChoice, QuestionText: "2+2?", Points: 2, AnswerCount: 2, CorrectCount: 1, CorrectRate: 50, AveragePoints: 1},
	}

	f, err := AssessmentScores(stats, questions)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Write(f, &buf); err != nil {
		t.Fatal(err)
	}

	reopened, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if got := reopened.GetSheetList(); len(got) != 2 || got[0] != RankingsSheet || got[1] != QuestionsSheet {
		t.Fatalf("sheets = %v", got)
	}

	rows, err := reopened.GetRows(RankingsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("ranking rows = %d, want 3", len(rows))
	}
	if rows[1][1] != "Bea" || rows[2][5] != "66.67" || rows[2][6] != "no" {
		t.Fatalf("unexpected ranking rows %v", rows)
	}

	qrows, err := reopened.GetRows(QuestionsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(qrows) != 2 || qrows[1][2] != "2+2?" {
		t.Fatalf("unexpected question rows %v", qrows)
	}
}

func TestScoresFilename(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		title, want string
	}{
		{"Quiz 1", "Quiz 1 scores 2024-05-01.xlsx"},
		{"  Unit  3: Fractions/Decimals ", "Unit 3_ Fractions_Decimals scores 2024-05-01.xlsx"},
		{"", "assessment scores 2024-05-01.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ScoresFilename(tt.title, at); got != tt.want {
				t.Fatalf("ScoresFilename(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestColName(t *testing.T) {
	for n, want := range map[int]string{1: "A", 26: "Z", 27: "AA", 52: "AZ", 53: "BA"} {
		if got := colName(n); got != want {
			t.Errorf("colName(%d) = %q, want %q", n, got, want)
		}
	}
}

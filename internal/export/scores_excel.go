package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/edutrack/assessment-service/internal/models"
)

const (
	RankingsSheet  = "Rankings"
	QuestionsSheet = "Questions"
)

// Sheet is a bold, filtered header row followed by data rows
type Sheet struct {
	Title  string
	Header []string
	Rows   [][]interface{}
}

// NewWorkbook builds a workbook with one sheet per entry, in order
func NewWorkbook(sheets []Sheet) (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Title); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Title); err != nil {
			return nil, fmt.Errorf("new sheet: %w", err)
		}

		for col, h := range s.Header {
			cell := fmt.Sprintf("%s1", colName(col+1))
			if err := f.SetCellStr(s.Title, cell, h); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		if len(s.Header) > 0 {
			end := colName(len(s.Header)) + "1"
			_ = f.SetCellStyle(s.Title, "A1", end, bold)
			_ = f.AutoFilter(s.Title, "A1:"+end, nil)
		}

		for r, row := range s.Rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellValue(s.Title, cell, val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}

		setColumnWidths(f, s)
	}
	return f, nil
}

// AssessmentScores renders the ranking table and per-question statistics
func AssessmentScores(stats *models.AssessmentStatistics, questions []models.QuestionStatistics) (*excelize.File, error) {
	rankings := Sheet{
		Title:  RankingsSheet,
		Header: []string{"Rank", "Student", "Section", "Score", "Max", "Percentage", "Graded"},
	}
	for _, r := range stats.Rankings {
		rankings.Rows = append(rankings.Rows, []interface{}{
			r.Rank, r.StudentName, r.Section, r.TotalScore, r.MaxScore, round2(r.Percentage), yesNo(r.Graded),
		})
	}

	perQuestion := Sheet{
		Title:  QuestionsSheet,
		Header: []string{"#", "Type", "Question", "Points", "Answers", "Correct", "Correct rate %", "Average points"},
	}
	for _, q := range questions {
		perQuestion.Rows = append(perQuestion.Rows, []interface{}{
			q.OrderIndex, string(q.Type), q.QuestionText, q.Points, q.AnswerCount, q.CorrectCount, round2(q.CorrectRate), round2(q.AveragePoints),
		})
	}

	return NewWorkbook([]Sheet{rankings, perQuestion})
}

// Write streams the workbook and closes it
func Write(f *excelize.File, w io.Writer) error {
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

// ScoresFilename builds a download name such as "Quiz 1 scores 2024-05-01.xlsx"
func ScoresFilename(title string, at time.Time) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		title = "assessment"
	}
	name := fmt.Sprintf("%s scores %s.xlsx", title, at.Format("2006-01-02"))
	return invalidFileRe.ReplaceAllString(name, "_")
}

func setColumnWidths(f *excelize.File, s Sheet) {
	for c := 1; c <= len(s.Header); c++ {
		widest := len(s.Header[c-1])
		for r := 0; r < len(s.Rows) && r < 50; r++ {
			if c-1 >= len(s.Rows[r]) {
				continue
			}
			if l := len(fmt.Sprint(s.Rows[r][c-1])); l > widest {
				widest = l
			}
		}
		w := float64(widest) * 1.1
		if w < 10 {
			w = 10
		}
		if w > 60 {
			w = 60
		}
		_ = f.SetColWidth(s.Title, colName(c), colName(c), w)
	}
}

func colName(n int) string {
	// 1 -> A; 27 -> AA
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

func round2(v float64) float64 {
	if v < 0 {
		return -round2(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/scoring"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet    = "Summary"
	questionsSheet  = "Questions"
	dimensionsSheet = "Dimensions"
	timeLayout      = "2006-01-02 15:04:05"
)

type exportService struct {
	attempts AttemptService
	catalog  CatalogService
	logger   *slog.Logger
}

func NewExportService(attempts AttemptService, catalog CatalogService, logger *slog.Logger) ExportService {
	return &exportService{
		attempts: attempts,
		catalog:  catalog,
		logger:   logger,
	}
}

// AttemptWorkbook renders a finished attempt as an xlsx file and returns the
// bytes with a suggested filename.
func (s *exportService) AttemptWorkbook(ctx context.Context, attemptID uint, userID string) ([]byte, string, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID, userID)
	if err != nil {
		return nil, "", err
	}
	if !attempt.Status.IsTerminal() {
		return nil, "", NewBusinessRuleError("attempt_not_finished", "results are available after the attempt is submitted", nil)
	}

	questions, err := s.catalog.AttemptQuestions(ctx, attempt)
	if err != nil {
		return nil, "", err
	}
	answers := scoring.AnswersByQuestion(attempt.Answers)
	summary := scoring.EvaluateAll(questions, answers)

	f := excelize.NewFile()
	defer f.Close()

	// The default sheet is renamed rather than left empty.
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, "", fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeSummary(f, attempt); err != nil {
		return nil, "", err
	}
	if err := writeQuestions(f, questions, attempt.Answers, summary); err != nil {
		return nil, "", err
	}
	if dims := scoring.DimensionScores(questions, answers); len(dims) > 0 {
		if err := writeDimensions(f, dims); err != nil {
			return nil, "", err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Attempt workbook exported",
		"attempt_id", attemptID,
		"user_id", userID,
		"bytes", buf.Len())
	return buf.Bytes(), fmt.Sprintf("attempt-%d.xlsx", attemptID), nil
}

func writeSummary(f *excelize.File, a *models.TestAttempt) error {
	submitted := ""
	if a.SubmittedAt != nil {
		submitted = a.SubmittedAt.Format(timeLayout)
	}
	rows := [][]interface{}{
		{"Attempt ID", a.ID},
		{"Test ID", a.TestID},
		{"User ID", a.UserID},
		{"Status", string(a.Status)},
		{"Started At", a.StartedAt.Format(timeLayout)},
		{"Submitted At", submitted},
		{"Time Spent (seconds)", a.TimeSpentSec},
		{"Correct", a.CorrectCount},
		{"Questions", a.QuestionCount},
		{"Points", fmt.Sprintf("%d / %d", a.AwardedPoints, a.TotalPoints)},
		{"Percentage", a.Percentage},
	}
	if a.BatteryID != nil {
		rows = append(rows, []interface{}{"Battery ID", *a.BatteryID})
	}
	return writeRows(f, summarySheet, rows)
}

func writeQuestions(f *excelize.File, questions []models.Question, answers []models.Answer, summary scoring.Summary) error {
	if _, err := f.NewSheet(questionsSheet); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	spent := make(map[uint]int, len(answers))
	for _, a := range answers {
		spent[a.QuestionID] = a.TimeSpentSec
	}

	rows := [][]interface{}{
		{"No", "Question", "Mode", "Points", "Selected", "Correct Options", "Result", "Awarded", "Time Spent (seconds)"},
	}
	for i, q := range questions {
		res := summary.Questions[i]
		result := "Incorrect"
		switch {
		case res.IsCorrect:
			result = "Correct"
		case !res.Answered:
			result = "Unanswered"
		}
		rows = append(rows, []interface{}{
			q.QuestionNo,
			q.Text,
			string(q.Mode),
			q.Points,
			optionTexts(&q, res.Selected),
			optionTexts(&q, res.Correct),
			result,
			res.PointsAwarded,
			spent[q.ID],
		})
	}
	return writeRows(f, questionsSheet, rows)
}

func writeDimensions(f *excelize.File, dims []scoring.DimensionScore) error {
	if _, err := f.NewSheet(dimensionsSheet); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	rows := [][]interface{}{{"Dimension", "Score", "Min", "Max", "Items", "Answered"}}
	for _, d := range dims {
		rows = append(rows, []interface{}{d.Dimension, d.Score, d.Min, d.Max, d.Items, d.Answered})
	}
	return writeRows(f, dimensionsSheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, r+1, err)
		}
	}
	return nil
}

func optionTexts(q *models.Question, ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		for _, o := range q.Options {
			if o.ID == id {
				parts = append(parts, o.Text)
				break
			}
		}
	}
	return strings.Join(parts, "; ")
}

// Package export writes review history and card state to spreadsheet files
// for offline inspection. It only reads from the repositories.
package export

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/example/studybot/internal/database"
)

// historyHeader is the column layout of the history sheet.
var historyHeader = []interface{}{
	"Card", "Item", "Rating", "Response ms",
	"Difficulty before", "Stability before", "Retrievability before",
	"Difficulty after", "Stability after", "Retrievability after",
	"Interval days", "Session", "Reviewed at",
}

var cardHeader = []interface{}{
	"Card", "Item", "Phase", "Difficulty", "Stability", "Retrievability",
	"Reviews", "Lapses", "Next review",
}

// Exporter dumps review history and card state to an .xlsx workbook.
type Exporter struct {
	cards   *database.CardRepository
	history *database.ReviewHistoryRepository
}

// NewExporter creates an exporter over the given repositories.
func NewExporter(cards *database.CardRepository, history *database.ReviewHistoryRepository) *Exporter {
	return &Exporter{cards: cards, history: history}
}

// WriteWorkbook writes a two-sheet workbook (review history, current card
// state) to the given path.
func (e *Exporter) WriteWorkbook(ctx context.Context, userID int64, path string) error {
	records, err := e.history.GetAll(ctx)
	if err != nil {
		return err
	}
	cards, err := e.cards.GetAll(ctx, userID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const historySheet = "Review History"
	const cardsSheet = "Cards"

	f.SetSheetName("Sheet1", historySheet)
	if err := f.SetSheetRow(historySheet, "A1", &historyHeader); err != nil {
		return fmt.Errorf("failed to write header: %v", err)
	}
	for i, rec := range records {
		sessionID := ""
		if rec.SessionID != nil {
			sessionID = strconv.FormatInt(*rec.SessionID, 10)
		}
		row := []interface{}{
			rec.CardID, rec.ItemID, rec.Rating.String(), rec.ResponseTimeMs,
			rec.DifficultyBefore, rec.StabilityBefore, rec.RetrievabilityBefore,
			rec.DifficultyAfter, rec.StabilityAfter, rec.RetrievabilityAfter,
			rec.IntervalDays, sessionID, rec.ReviewedAt.Format("2006-01-02 15:04:05"),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write history row: %v", err)
		}
	}

	if _, err := f.NewSheet(cardsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %v", err)
	}
	if err := f.SetSheetRow(cardsSheet, "A1", &cardHeader); err != nil {
		return fmt.Errorf("failed to write header: %v", err)
	}
	for i, card := range cards {
		row := []interface{}{
			card.ID, card.ItemID, card.Phase.String(),
			card.Difficulty, card.Stability, card.Retrievability,
			card.ReviewCount, card.LapseCount,
			card.NextReviewDate.Format("2006-01-02 15:04:05"),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(cardsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write card row: %v", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %v", err)
	}
	return nil
}

// Package export produces XLSX workbooks from reconciled transactions for
// operator and end-of-month bookkeeping use.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yorutsuke/yorutsuke-cloud/constants"
	"github.com/yorutsuke/yorutsuke-cloud/internal/repository"
)

// Service is a tiny façade over the transaction repository that produces
// XLSX bytes for exports.
type Service struct {
	txs    repository.TransactionRepository
	sheet  string
	logger *slog.Logger
}

func NewService(txs repository.TransactionRepository, sheet string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if sheet == "" {
		sheet = "Transactions"
	}
	return &Service{txs: txs, sheet: sheet, logger: logger}
}

// ExportTransactionsXLSX returns an XLSX workbook (as bytes) with one row per
// transaction for the given user. Failed extractions are included so the
// reader can see which receipts still need manual entry.
func (s *Service) ExportTransactionsXLSX(ctx context.Context, userID string) ([]byte, error) {
	start := time.Now()

	txs, err := s.txs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	f := excelize.NewFile()
	sheet := s.sheet
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Receipt Date",
		"Merchant",
		"Category",
		"Amount",
		"Status",
		"AI Confidence",
		"Receipt Image Key",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, tx := range txs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, tx.ReceiptDate)
		write(2, tx.Merchant)
		write(3, tx.Category)
		write(4, tx.Amount)
		write(5, string(tx.Status))
		if tx.Status != constants.TxStatusFailed {
			write(6, fmt.Sprintf("%.2f", tx.AIConfidence))
		}
		write(7, tx.S3Key)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "B", 28) // merchant
	_ = f.SetColWidth(sheet, "C", "C", 22) // category
	_ = f.SetColWidth(sheet, "D", "D", 14) // amount
	_ = f.SetColWidth(sheet, "E", "F", 14) // status, confidence
	_ = f.SetColWidth(sheet, "G", "G", 60) // image key

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", userID,
		"rows", len(txs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

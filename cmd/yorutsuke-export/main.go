// yorutsuke-export writes a user's reconciled transactions to an XLSX file.
//
// Usage:
//
//	yorutsuke-export -user u1 -out transactions.xlsx
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/yorutsuke/yorutsuke-cloud/internal/common"
	"github.com/yorutsuke/yorutsuke-cloud/internal/export"
	"github.com/yorutsuke/yorutsuke-cloud/internal/repository"
)

func main() {
	userID := flag.String("user", "", "user id to export")
	outPath := flag.String("out", "transactions.xlsx", "output file path")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *userID == "" {
		log.Error("-user is required")
		os.Exit(2)
	}

	cfg := common.LoadConfig()

	ctx := context.Background()
	awsCfg, err := repository.LoadAWSConfig(ctx, log)
	if err != nil {
		os.Exit(1)
	}

	db := repository.NewDynamoClient(awsCfg)
	txs := repository.NewTransactionRepository(db, cfg.Tables.TransactionsTable, log)

	svc := export.NewService(txs, cfg.Export.SheetName, log)
	b, err := svc.ExportTransactionsXLSX(ctx, *userID)
	if err != nil {
		log.Error("export failed", "user_id", *userID, "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*outPath, b, 0o644); err != nil {
		log.Error("write failed", "path", *outPath, "error", err)
		os.Exit(1)
	}
	log.Info("export written", "path", *outPath, "bytes", len(b))
}

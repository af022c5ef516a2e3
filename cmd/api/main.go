package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/pilotage-rh/analytics-backend-go/internal/config"
	appHTTP "github.com/pilotage-rh/analytics-backend-go/internal/handler/http"
	"github.com/pilotage-rh/analytics-backend-go/internal/pkg/clock"
	"github.com/pilotage-rh/analytics-backend-go/internal/pkg/database"
	"github.com/pilotage-rh/analytics-backend-go/internal/repository/postgresql"
	"github.com/pilotage-rh/analytics-backend-go/internal/service/importer"
	snapshotService "github.com/pilotage-rh/analytics-backend-go/internal/service/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "analytics-backend"),
		slog.String("env", cfg.App.Env),
	)

	recordRepo := postgresql.NewRecordRepository(db)
	snapshotRepo := postgresql.NewSnapshotRepository(db)

	workbookReader := importer.NewService(cfg.Import.WorkbookDir)
	snapshotSvc := snapshotService.NewSnapshotService(
		recordRepo,
		snapshotRepo,
		workbookReader,
		clock.System(),
		logger,
	)

	snapshotHandler := appHTTP.NewSnapshotHandler(snapshotSvc)
	importHandler := appHTTP.NewImportHandler(snapshotSvc)

	router := appHTTP.NewRouter(snapshotHandler, importHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}

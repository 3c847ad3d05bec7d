package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fixcity/api/internal/client"
	"github.com/fixcity/api/internal/config"
	"github.com/fixcity/api/internal/consolidate"
	"github.com/fixcity/api/internal/store"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	execute := flag.Bool("execute", false, "Apply merge actions (default is a dry run)")
	workers := flag.Int("workers", 4, "Number of parallel workers across category groups")
	boostAssigned := flag.Bool("boost-assigned", false, "Count reports with an assigned technician one corroboration ahead")
	outputFile := flag.String("output", "", "Write the run summary and actions to a JSON file")
	notify := flag.Bool("notify", false, "Send merge notifications (only with -execute)")
	flag.Parse()

	cfg := config.Load()
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := []consolidate.Option{}
	if *notify && *execute && cfg.NotifyURL != "" {
		opts = append(opts, consolidate.WithNotifier(client.NewNotifyClient(cfg.NotifyURL)))
	}
	consolidator := consolidate.New(store.NewReportStore(db), opts...)

	dryRun := !*execute
	if dryRun {
		fmt.Println("Dry run: planning merge actions without mutating anything. Pass -execute to apply.")
	}

	summary, actions, err := consolidator.RunBatch(context.Background(), consolidate.BatchOptions{
		DryRun:        dryRun,
		Workers:       *workers,
		BoostAssigned: *boostAssigned,
	})
	if err != nil {
		log.Fatalf("Batch run failed: %v", err)
	}

	fmt.Printf("\n=== Consolidation Complete ===\n")
	fmt.Printf("Reports scanned: %d (skipped: %d)\n", summary.Scanned, summary.Skipped)
	fmt.Printf("Category groups: %d\n", summary.Groups)
	fmt.Printf("Merges planned:  %d\n", summary.Planned)
	if !dryRun {
		fmt.Printf("Merges applied:  %d (failed: %d)\n", summary.Applied, summary.Failed)
	}
	fmt.Printf("Time elapsed:    %v\n", summary.Elapsed)

	for _, action := range actions {
		fmt.Printf("  %s <= %s  (%.0fm, similarity %.2f, count %d, priority %s)\n",
			action.ParentID, action.DuplicateID,
			action.DistanceMeters, action.TextSimilarity,
			action.NewCount, action.NewPriority)
	}

	if *outputFile != "" {
		output := map[string]interface{}{
			"summary": summary,
			"actions": actions,
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		if err := os.WriteFile(*outputFile, jsonData, 0644); err != nil {
			log.Printf("Failed to write output file: %v", err)
		} else {
			fmt.Printf("\nResults saved to %s\n", *outputFile)
		}
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
}

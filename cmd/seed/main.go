package main

import (
	"bufio"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/fixcity/api/internal/config"
	"github.com/fixcity/api/internal/database"
)

func main() {
	// Parse command line flags
	filePath := flag.String("file", "data/categories.txt", "Path to category list file")
	flag.Parse()

	log.Printf("Seeding categories from %s", *filePath)

	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migration
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Load category labels from file
	labels, err := loadLabels(*filePath)
	if err != nil {
		log.Fatalf("Failed to load category list: %v", err)
	}

	log.Printf("Loaded %d labels from file", len(labels))

	inserted := 0
	skipped := 0
	for _, label := range labels {
		result := db.Exec(`
			INSERT INTO categories (label, created_at)
			VALUES (?, NOW())
			ON CONFLICT (label) DO NOTHING
		`, label)

		if result.Error != nil {
			log.Printf("Error inserting category %s: %v", label, result.Error)
			skipped++
			continue
		}

		if result.RowsAffected > 0 {
			inserted++
		} else {
			skipped++
		}
	}

	log.Printf("Seeding complete. Inserted: %d, Skipped: %d", inserted, skipped)
}

func loadLabels(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, strings.ToLower(line))
	}

	return labels, scanner.Err()
}

// Command seed imports content records from a JSON file into the local
// content store. Useful for bootstrapping a development database or restoring
// an export.
//
// Usage:
//
//	seed -db swipefeed.db -file content.json
//
// The input file is a JSON array of records:
//
//	[{"id": "...", "kind": "post", "actor": {"id": "...", "display_name": "...",
//	  "role": "user", "contact_handle": "", "bio": ""},
//	  "media_url": "...", "caption": "...", "created_at": "2026-08-01T12:00:00Z",
//	  "likes": 10, "comments": 2, "shares": 1}]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/store"
)

type seedRecord struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Actor struct {
		ID            string `json:"id"`
		DisplayName   string `json:"display_name"`
		Role          string `json:"role"`
		ContactHandle string `json:"contact_handle"`
		Bio           string `json:"bio"`
	} `json:"actor"`
	MediaURL  string    `json:"media_url"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	Shares    int       `json:"shares"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	dbPath := flag.String("db", "swipefeed.db", "path to the SQLite content store")
	filePath := flag.String("file", "", "path to the JSON content export (required)")
	flag.Parse()

	if *filePath == "" {
		flag.Usage()
		return fmt.Errorf("-file is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	data, err := os.ReadFile(*filePath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var records []seedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	repo, err := store.NewRepository(*dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer repo.Close()

	ctx := context.Background()
	imported, skipped := 0, 0
	for _, rec := range records {
		item := domain.ContentItem{
			ID:   rec.ID,
			Kind: domain.ContentKind(rec.Kind),
			Actor: domain.Actor{
				ID:            rec.Actor.ID,
				DisplayName:   rec.Actor.DisplayName,
				Privileged:    rec.Actor.Role == "admin" || rec.Actor.Role == "service",
				ContactHandle: rec.Actor.ContactHandle,
				Bio:           rec.Actor.Bio,
			},
			MediaURL:  rec.MediaURL,
			Caption:   rec.Caption,
			CreatedAt: rec.CreatedAt,
			Engagement: domain.Engagement{
				Likes:    rec.Likes,
				Comments: rec.Comments,
				Shares:   rec.Shares,
			},
		}
		if err := item.Validate(); err != nil {
			logger.Warn("skipping invalid record", "error", err)
			skipped++
			continue
		}
		if err := repo.UpsertContent(ctx, &item); err != nil {
			return fmt.Errorf("import %s: %w", item.ID, err)
		}
		imported++
	}

	logger.Info("seed complete", "imported", imported, "skipped", skipped)
	return nil
}

// Command export writes the saved layer records to per-author CSV files for
// downstream spreadsheet review.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"seelayer/internal/config"
	"seelayer/internal/store"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	dbPath := flag.String("db", cfg.DBPath, "path to the seelayer database")
	outDir := flag.String("out", cfg.ExportDir, "directory to write CSV files into")
	flag.Parse()

	db, err := store.Open(*dbPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer db.Close()

	records, err := db.ListAll(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("list records")
	}
	if len(records) == 0 {
		log.Warn().Msg("no records to export")
		return
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create export directory")
	}

	byAuthor := make(map[string][]store.Saved)
	var authors []string
	for _, rec := range records {
		if _, seen := byAuthor[rec.AuthorID]; !seen {
			authors = append(authors, rec.AuthorID)
		}
		byAuthor[rec.AuthorID] = append(byAuthor[rec.AuthorID], rec)
	}

	for _, author := range authors {
		path := filepath.Join(*outDir, exportFileName(author))
		if err := writeAuthorCSV(path, author, byAuthor[author]); err != nil {
			log.Fatal().Err(err).Str("author", author).Msg("write csv")
		}
		log.Info().Str("file", path).Int("rows", len(byAuthor[author])).Msg("exported")
	}
}

// exportFileName builds the per-author file name from a short author prefix.
func exportFileName(author string) string {
	short := author
	if len(short) > 6 {
		short = short[:6]
	}
	return fmt.Sprintf("SL_%s.csv", short)
}

func writeAuthorCSV(path, author string, records []store.Saved) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"author", "layer_name", "iFrame", "layer_date"}
	for i := 1; i <= 8; i++ {
		header = append(header, fmt.Sprintf("text%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	shortAuthor := author
	if len(shortAuthor) > 11 {
		shortAuthor = shortAuthor[:11]
	}

	for _, rec := range records {
		row := []string{
			shortAuthor,
			rec.Record.Title,
			"1",
			rec.CreatedAt.Format("2006-01-02"),
		}
		// Text columns follow display order: the position of a mark in the
		// slice, not its id.
		for i := 0; i < 8; i++ {
			if i >= len(rec.Record.Marks) {
				row = append(row, "")
				continue
			}
			m := rec.Record.Marks[i]
			note, _ := json.Marshal(rec.Record.TextStore[m.ID])
			row = append(row, fmt.Sprintf(`"id": %d, "text": %s, "x": %g, "y": %g`,
				m.ID, note, m.X, m.Y))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

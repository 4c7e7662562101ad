package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/noesis/pkg/noesis"
	"github.com/cognicore/noesis/pkg/noesis/config"
	"github.com/cognicore/noesis/pkg/noesis/ingest"
	"github.com/cognicore/noesis/pkg/noesis/logic"
)

func main() {
	var (
		input     = flag.String("input", "", "File or directory of .txt/.html documents (required)")
		dataDir   = flag.String("data", "", "Data directory for flat-file storage (overrides config)")
		dbPath    = flag.String("db", "", "SQLite database path (overrides flat files)")
		rulesPath = flag.String("rules", "", "Knowledge file with seed facts and rules (optional)")
		workers   = flag.Int("workers", 4, "Concurrent extraction workers")
		check     = flag.Bool("check", true, "Run a consistency check after ingestion")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("--input required")
	}

	cfg := config.Default()
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	ctx := context.Background()

	engine, err := noesis.Open(ctx, noesis.Options{Config: cfg})
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close(ctx)

	if *rulesPath != "" {
		n, err := loadKnowledge(engine, *rulesPath)
		if err != nil {
			log.Fatalf("load knowledge: %v", err)
		}
		log.Printf("Seeded %d entries from %s", n, *rulesPath)
	}

	paths, err := collectPaths(*input)
	if err != nil {
		log.Fatal(err)
	}
	if len(paths) == 0 {
		log.Fatal("no .txt or .html documents found under --input")
	}

	added, err := ingestAll(ctx, engine, paths, *workers)
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	log.Printf("Ingested %d documents, added %d facts", len(paths), added)

	if *check {
		result := engine.CheckConsistency(ctx)
		if result.Consistent {
			log.Printf("Knowledge base is consistent (%v)", result.Duration)
		} else {
			log.Printf("WARNING: %d contradiction(s) found:", len(result.Contradictions))
			for _, c := range result.Contradictions {
				log.Printf("  [%s] %s", c.Kind, c.Description)
			}
		}
	}

	if err := engine.Save(ctx); err != nil {
		log.Fatalf("save: %v", err)
	}

	st := engine.Stats()
	fmt.Printf("Knowledge base: %d facts, %d rules\n", st.Facts, st.Rules)
}

// collectPaths gathers document paths from a file or directory.
func collectPaths(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	var paths []string
	err = filepath.WalkDir(input, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md", ".html", ".htm":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", input, err)
	}
	return paths, nil
}

// ingestAll extracts facts from each document concurrently. Extraction
// runs in parallel; additions to the base go through a mutex so the
// per-document counts stay accurate.
func ingestAll(ctx context.Context, engine *noesis.Engine, paths []string, workers int) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	total := 0

	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			extractor := ingest.NewExtractor(filepath.Base(path))
			var facts []logic.Fact
			switch strings.ToLower(filepath.Ext(path)) {
			case ".html", ".htm":
				facts, err = extractor.FromHTML(strings.NewReader(string(data)))
				if err != nil {
					return fmt.Errorf("parse %s: %w", path, err)
				}
			default:
				facts = extractor.FromText(string(data))
			}

			mu.Lock()
			for _, f := range facts {
				if engine.AddFact(f) {
					total++
				}
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total, nil
}

func loadKnowledge(engine *noesis.Engine, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open knowledge file: %w", err)
	}
	defer f.Close()

	entries, err := logic.ReadKnowledge(f)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	added := 0
	for _, e := range entries {
		if e.IsRule {
			ok := engine.AddRule(logic.Rule{
				ID:          engine.Base().NewID(),
				Kind:        e.Kind,
				Premises:    e.Premises,
				Conclusions: e.Conclusions,
				Confidence:  e.Confidence,
				Source:      path,
				CreatedAt:   time.Now(),
			})
			if ok {
				added++
			}
			continue
		}
		ok := engine.AddFact(logic.Fact{
			ID:         engine.Base().NewID(),
			Term:       e.Term,
			Confidence: e.Confidence,
			Source:     path,
			CreatedAt:  time.Now(),
		})
		if ok {
			added++
		}
	}
	return added, nil
}

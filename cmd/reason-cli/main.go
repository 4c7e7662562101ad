package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cognicore/noesis/pkg/noesis"
	"github.com/cognicore/noesis/pkg/noesis/config"
	"github.com/cognicore/noesis/pkg/noesis/logic"
	"github.com/cognicore/noesis/pkg/noesis/maintenance"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (optional, defaults apply)")
		dataDir    = flag.String("data", "", "Data directory (overrides config)")
		dbPath     = flag.String("db", "", "SQLite database path (overrides flat files)")
		rulesPath  = flag.String("rules", "", "Knowledge file to load at startup (optional)")
		factsPath  = flag.String("facts", "", "Second knowledge file, typically facts only (optional)")
		query      = flag.String("query", "", "One-shot query (non-interactive mode)")
		method     = flag.String("method", "hybrid", "Inference method: forward|backward|constraint|hybrid")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
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

	for _, path := range []string{*rulesPath, *factsPath} {
		if path == "" {
			continue
		}
		n, err := loadKnowledge(engine, path)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Loaded %d entries from %s\n", n, path)
	}

	// One-shot query mode
	if *query != "" {
		executeQuery(ctx, engine, *query, logic.Method(normalizeMethod(*method)))
		return
	}

	// Interactive mode
	fmt.Println("===========================================")
	fmt.Println("  Noesis Reasoning CLI")
	fmt.Println("  Deterministic rule-based inference")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Enter a query like mortal(socrates), a fact, or a rule.")
	fmt.Println("Commands: :check :stats :facts :rules :save :prune :export <path> (Ctrl+D to exit)")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			runCommand(ctx, engine, line)
			continue
		}

		if strings.Contains(line, "->") || strings.Contains(line, "<->") {
			if err := addRule(engine, line); err != nil {
				fmt.Println("Error:", err)
			}
			continue
		}

		executeQuery(ctx, engine, line, logic.Method(normalizeMethod(*method)))
	}

	fmt.Println("\nGoodbye!")
}

func executeQuery(ctx context.Context, engine *noesis.Engine, query string, method logic.Method) {
	result := engine.Reason(ctx, query, method)

	if result.Success {
		fmt.Printf("\nYES (confidence %.2f, %s, %v)\n", result.Confidence, result.Method, result.Duration.Round(time.Microsecond))
	} else {
		fmt.Printf("\nNO (%s, %v)\n", result.Method, result.Duration.Round(time.Microsecond))
	}
	fmt.Println(" ", result.Explanation)

	for i, step := range result.Steps {
		fmt.Printf("  step %d: rule %s, premises %v → derived %v (%.2f)\n",
			i+1, step.RuleApplied, step.PremisesIDs, step.DerivedIDs, step.Confidence)
	}
	fmt.Println()
}

// fileWriter writes exported knowledge to a path on disk.
type fileWriter struct {
	path string
}

func (w fileWriter) WriteKnowledge(_ context.Context, content string) error {
	return os.WriteFile(w.path, []byte(content), 0o644)
}

func runCommand(ctx context.Context, engine *noesis.Engine, cmd string) {
	if path, ok := strings.CutPrefix(cmd, ":export "); ok {
		exporter := maintenance.Exporter{Writer: fileWriter{path: strings.TrimSpace(path)}}
		if err := exporter.Export(ctx, engine.Base()); err != nil {
			fmt.Println("Error:", err)
		} else {
			fmt.Println("Exported to", strings.TrimSpace(path))
		}
		return
	}

	switch cmd {
	case ":check":
		check := engine.CheckConsistency(ctx)
		if check.Consistent {
			fmt.Println("Knowledge base is consistent.")
		} else {
			fmt.Printf("Found %d contradiction(s):\n", len(check.Contradictions))
			for _, c := range check.Contradictions {
				fmt.Printf("  [%s] %s\n", c.Kind, c.Description)
			}
		}
		for _, w := range check.Warnings {
			fmt.Println("  warning:", w)
		}

	case ":stats":
		st := engine.Stats()
		fmt.Printf("Facts: %d  Rules: %d  Queries: %d\n", st.Facts, st.Rules, st.Queries)
		fmt.Printf("Forward: %d  Backward: %d  Constraint: %d  Hybrid: %d\n",
			st.ForwardRuns, st.BackwardRuns, st.ConstraintRuns, st.HybridRuns)
		fmt.Printf("Cache: %d entries, %d hits, %d misses\n", st.CacheSize, st.CacheHits, st.CacheMisses)
		fmt.Printf("Solver available: %v  Uptime: %v\n", st.SolverAvailable, st.Uptime.Round(time.Second))

	case ":facts":
		for _, f := range engine.Base().Facts() {
			fmt.Printf("  %s [%.2f] (%s)\n", f.Term, f.Confidence, f.Source)
		}

	case ":rules":
		for _, r := range engine.Base().Rules() {
			fmt.Printf("  %s: %s [%.2f]\n", r.ID, r, r.Confidence)
		}

	case ":prune":
		pruner := maintenance.Pruner{Base: engine.Base()}
		res, err := pruner.Prune()
		if err != nil {
			fmt.Println("Error:", err)
		} else {
			fmt.Printf("Pruned %d of %d facts.\n", res.Pruned, res.Scanned)
		}

	case ":save":
		if err := engine.Save(ctx); err != nil {
			fmt.Println("Error:", err)
		} else {
			fmt.Println("Saved.")
		}

	default:
		fmt.Println("Unknown command:", cmd)
	}
}

func addRule(engine *noesis.Engine, line string) error {
	premises, conclusions, kind, confidence, err := logic.ParseRuleLine(line)
	if err != nil {
		return err
	}
	r := logic.Rule{
		ID:          engine.Base().NewID(),
		Kind:        kind,
		Premises:    premises,
		Conclusions: conclusions,
		Confidence:  confidence,
		Source:      "cli",
		CreatedAt:   time.Now(),
	}
	if !engine.AddRule(r) {
		return fmt.Errorf("rule rejected: %s", line)
	}
	fmt.Println("Added rule", r.ID)
	return nil
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

func normalizeMethod(m string) string {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case "forward":
		return string(logic.MethodForward)
	case "backward":
		return string(logic.MethodBackward)
	case "constraint":
		return string(logic.MethodConstraint)
	default:
		return string(logic.MethodHybrid)
	}
}

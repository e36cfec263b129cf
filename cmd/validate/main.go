// Command validate checks a paged feed fixture and a set of labelled drafts
// against the duplicate-check engine. It verifies fixture integrity, the page
// chain, the expected verdict for every labelled draft, and the structural
// rules every verdict must satisfy.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -feed-dir data/mock/feed \
//	  -cases data/mock/drafts.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/listing-dupcheck/internal/adapter/feed"
	"github.com/couchcryptid/listing-dupcheck/internal/catalog"
	"github.com/couchcryptid/listing-dupcheck/internal/domain"
	"github.com/couchcryptid/listing-dupcheck/internal/dupcheck"
	"github.com/couchcryptid/listing-dupcheck/internal/observability"
	"github.com/couchcryptid/listing-dupcheck/internal/scoring"
)

// labelledDraft is one entry of the cases file.
type labelledDraft struct {
	Name            string                 `json:"name"`
	Draft           domain.DraftAttributes `json:"draft"`
	ExpectLevel     domain.Level           `json:"expectLevel"`
	ExpectProjectID string                 `json:"expectProjectId,omitempty"`
	MinScore        int                    `json:"minScore,omitempty"`
}

// staticSource serves one fixed snapshot.
type staticSource struct{ snap *catalog.Snapshot }

func (s staticSource) Get(context.Context) *catalog.Snapshot { return s.snap }

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	feedDir := flag.String("feed-dir", "", "directory containing page_N.json feed fixtures")
	casesPath := flag.String("cases", "", "path to labelled drafts JSON")
	flag.Parse()

	if *feedDir == "" || *casesPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*feedDir, *casesPath); code != 0 {
		os.Exit(code)
	}
}

func run(feedDir, casesPath string) int {
	fmt.Println("=== Duplicate Check Validation ===")
	fmt.Println()

	pages, err := loadPages(feedDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load feed fixture: %v\n", err)
		return 1
	}

	cases, err := loadJSON[labelledDraft](casesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load cases: %v\n", err)
		return 1
	}

	scorer, err := scoring.NewScorer(scoring.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: scorer: %v\n", err)
		return 1
	}

	integrity, entries := validateCatalog(pages)
	snap := catalog.NewSnapshot(entries, time.Now(), time.Hour, catalog.DefaultMaxCandidates)
	svc := dupcheck.New(staticSource{snap: snap}, scorer, slog.New(slog.DiscardHandler), observability.NewMetrics())

	phases := []*phase{
		integrity,
		validatePageChain(pages),
		validateExpectations(svc, cases),
		validateVerdictShape(svc, snap, cases),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Fixture: %d pages, %d catalog entries, %d labelled drafts\n", len(pages), len(entries), len(cases))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// loadPages follows page_1.json, page_2.json, ... until a file is missing.
func loadPages(dir string) ([]feed.Page, error) {
	var pages []feed.Page
	for n := 1; ; n++ {
		data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("page_%d.json", n)))
		if os.IsNotExist(err) && n > 1 {
			return pages, nil
		}
		if err != nil {
			return nil, err
		}
		var p feed.Page
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		pages = append(pages, p)
	}
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ── Phase 1: catalog integrity ──

func validateCatalog(pages []feed.Page) (*phase, []domain.CatalogEntry) {
	p := &phase{name: "Catalog fixture integrity"}
	seen := map[string]bool{}
	var entries []domain.CatalogEntry

	for pi, page := range pages {
		for ii, item := range page.Items {
			where := fmt.Sprintf("page %d item %d", pi+1, ii)
			entry, ok := item.Entry()
			if !ok {
				p.errorf("%s: missing id", where)
				continue
			}
			if seen[entry.ID] {
				p.errorf("%s: duplicate id %q", where, entry.ID)
				continue
			}
			seen[entry.ID] = true

			if entry.Name == "" {
				p.errorf("%s (%s): missing name", where, entry.ID)
			}
			if (item.Latitude == nil) != (item.Longitude == nil) {
				p.errorf("%s (%s): only one of latitude/longitude set", where, entry.ID)
			}
			if item.Latitude != nil && item.Longitude != nil && entry.Location == nil {
				p.errorf("%s (%s): coordinates %.6f,%.6f rejected", where, entry.ID, *item.Latitude, *item.Longitude)
			}
			entries = append(entries, entry)
		}
	}
	return p, entries
}

// ── Phase 2: page chain ──

func validatePageChain(pages []feed.Page) *phase {
	p := &phase{name: "Feed page chain"}
	for i, page := range pages {
		last := i == len(pages)-1
		switch {
		case last && page.NextPage != nil:
			p.errorf("page %d: last page points to page %d", i+1, *page.NextPage)
		case !last && page.NextPage == nil:
			p.errorf("page %d: chain ends early, %d pages follow", i+1, len(pages)-i-1)
		case !last && *page.NextPage != i+2:
			p.errorf("page %d: nextPage is %d, want %d", i+1, *page.NextPage, i+2)
		}
	}
	return p
}

// ── Phase 3: labelled verdicts ──

func validateExpectations(svc *dupcheck.Service, cases []labelledDraft) *phase {
	p := &phase{name: "Labelled draft verdicts"}
	ctx := context.Background()
	for _, c := range cases {
		res := svc.Check(ctx, c.Draft)
		if res.Level != c.ExpectLevel {
			p.errorf("%s: level %s (score %d), want %s", c.Name, res.Level, res.Score, c.ExpectLevel)
			continue
		}
		if c.ExpectProjectID != "" && res.MatchedProjectID() != c.ExpectProjectID {
			p.errorf("%s: matched %q, want %q", c.Name, res.MatchedProjectID(), c.ExpectProjectID)
		}
		if res.Score < c.MinScore {
			p.errorf("%s: score %d below %d", c.Name, res.Score, c.MinScore)
		}
	}
	return p
}

// ── Phase 4: verdict shape ──

func validateVerdictShape(svc *dupcheck.Service, snap *catalog.Snapshot, cases []labelledDraft) *phase {
	p := &phase{name: "Verdict structure"}
	ctx := context.Background()
	for _, c := range cases {
		res := svc.Check(ctx, c.Draft)

		if res.Score < 0 || res.Score > 100 {
			p.errorf("%s: score %d out of range", c.Name, res.Score)
		}
		if res.Level != scoring.Classify(res.Score) {
			p.errorf("%s: level %s does not match score %d", c.Name, res.Level, res.Score)
		}
		if (res.Match != nil) != (res.Level != domain.LevelNone) {
			p.errorf("%s: match presence disagrees with level %s", c.Name, res.Level)
		}
		if res.Match != nil {
			if res.Match.Score != res.Score {
				p.errorf("%s: match score %d, verdict score %d", c.Name, res.Match.Score, res.Score)
			}
			if _, ok := snap.Lookup(res.Match.ProjectID); !ok {
				p.errorf("%s: matched %q not in catalog", c.Name, res.Match.ProjectID)
			}
		}
		if again := svc.Check(ctx, c.Draft); again.Score != res.Score || again.MatchedProjectID() != res.MatchedProjectID() {
			p.errorf("%s: repeated check differs", c.Name)
		}
	}
	return p
}

// Command genmock reads a project catalog CSV and writes paged feed fixtures
// in the shape the catalog feed API serves. Each page is converted through the
// feed adapter so the fixtures load exactly as production responses would.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv data/mock/projects.csv \
//	  -out-dir data/mock/feed \
//	  -page-size 100
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/listing-dupcheck/internal/adapter/feed"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "project catalog CSV (id,name,developer,community,city,latitude,longitude,url,price_from)")
	outDir := flag.String("out-dir", "", "directory for page_N.json fixtures")
	pageSize := flag.Int("page-size", 100, "projects per page")
	flag.Parse()

	if *csvPath == "" || *outDir == "" || *pageSize < 1 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv, -out-dir")
	}

	projects, skipped, err := readProjects(*csvPath)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *csvPath, err)
	}
	log.Printf("%d projects, %d rows skipped", len(projects), skipped)

	pages := paginate(projects, *pageSize)
	for i, p := range pages {
		path := filepath.Join(*outDir, fmt.Sprintf("page_%d.json", i+1))
		if err := writeJSON(path, p); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	log.Printf("wrote %d pages to %s", len(pages), *outDir)

	printStats(projects)
	return nil
}

func readProjects(path string) ([]feed.Project, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, 0, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var projects []feed.Project //nolint:prealloc // rows without a usable ID are skipped
	seen := map[string]bool{}
	skipped := 0
	for _, row := range rows[1:] {
		p := feed.Project{
			ID:        get(row, colIdx, "id"),
			Name:      get(row, colIdx, "name"),
			Developer: get(row, colIdx, "developer"),
			Community: get(row, colIdx, "community"),
			City:      get(row, colIdx, "city"),
			Latitude:  getFloat(row, colIdx, "latitude"),
			Longitude: getFloat(row, colIdx, "longitude"),
			URL:       get(row, colIdx, "url"),
			PriceFrom: getFloat(row, colIdx, "price_from"),
		}

		// Round-trip through the adapter so invalid coordinates and prices are
		// dropped the same way the service drops them.
		entry, ok := p.Entry()
		if !ok || seen[entry.ID] {
			skipped++
			continue
		}
		seen[entry.ID] = true
		projects = append(projects, feed.FromEntry(entry))
	}
	return projects, skipped, nil
}

func paginate(projects []feed.Project, size int) []feed.Page {
	var pages []feed.Page
	for start := 0; start < len(projects) || start == 0; start += size {
		end := min(start+size, len(projects))
		page := feed.Page{Items: projects[start:end]}
		if end < len(projects) {
			next := len(pages) + 2
			page.NextPage = &next
		}
		pages = append(pages, page)
		if end == len(projects) {
			break
		}
	}
	return pages
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func getFloat(row []string, idx map[string]int, col string) *float64 {
	s := get(row, idx, col)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(projects []feed.Project) {
	cities := map[string]int{}
	var withLocation, withPrice int
	for _, p := range projects {
		cities[p.City]++
		if p.Latitude != nil {
			withLocation++
		}
		if p.PriceFrom != nil {
			withPrice++
		}
	}

	fmt.Println()
	fmt.Println("=== Catalog Stats ===")
	fmt.Printf("projects:      %d\n", len(projects))
	fmt.Printf("with location: %d\n", withLocation)
	fmt.Printf("with price:    %d\n", withPrice)

	names := make([]string, 0, len(cities))
	for c := range cities {
		names = append(names, c)
	}
	sort.Slice(names, func(i, j int) bool { return cities[names[i]] > cities[names[j]] })
	fmt.Println("top cities:")
	for _, c := range names[:min(5, len(names))] {
		label := c
		if label == "" {
			label = "(none)"
		}
		fmt.Printf("  %-20s %d\n", label, cities[c])
	}
}

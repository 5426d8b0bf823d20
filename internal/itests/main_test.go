package itests

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"QlistAPI/internal"
	"QlistAPI/internal/config"
	"QlistAPI/internal/db"
	"QlistAPI/internal/resource"
	"QlistAPI/internal/router"
)

var testBaseURL string

func TestMain(m *testing.M) {
	cfg := config.LoadConfig()
	cfg.Locale = "pt" // fixtures carry diacritics

	teardown, err := SetupAndTeardownTestDB(cfg.PostgresDSN, db.InitPostgres)
	if err != nil {
		log.Fatalf("test DB setup: %v", err)
	}

	if err := seedFixtures(); err != nil {
		_ = teardown()
		log.Fatalf("seed fixtures: %v", err)
	}

	root, err := internal.FindRepoRoot()
	if err != nil {
		_ = teardown()
		log.Fatalf("repo root: %v", err)
	}
	if err := resource.InitRegistry(filepath.Join(root, "db")); err != nil {
		_ = teardown()
		log.Fatalf("resource registry: %v", err)
	}

	// no redis in tests: the resolver falls through to the table scan
	db.RDB = nil

	router.InitRoutes(cfg)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = teardown()
		log.Fatalf("listen: %v", err)
	}
	go func() { _ = http.Serve(l, nil) }()
	testBaseURL = "http://" + l.Addr().String() + cfg.BasePath

	code := m.Run()

	_ = l.Close()
	db.Pool.Close()
	if err := teardown(); err != nil {
		log.Printf("teardown: %v", err)
	}
	os.Exit(code)
}

// seedFixtures loads a fixed catalog of 3 categories and 25 plants:
//   - plant N is created on 2024-01-N at noon UTC
//   - category rotates 1,2,3 by N%3+1
//   - plants 21..25 are inactive, the rest active
func seedFixtures() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	categories := []struct {
		id   int64
		name string
	}{
		{1, "Suculentas"},
		{2, "Árvores"},
		{3, "Flores"},
	}
	for _, c := range categories {
		if _, err := db.Pool.Exec(ctx,
			`INSERT INTO categories (id, name, created_at) VALUES ($1, $2, now())`,
			c.id, c.name,
		); err != nil {
			return fmt.Errorf("insert category %d: %w", c.id, err)
		}
	}

	for id := 1; id <= 25; id++ {
		name := fmt.Sprintf("fern-%02d", id)
		description := ""
		switch id {
		case 1:
			name = "a.b*c fern"
		case 2:
			name = "axbc fern"
		case 3:
			name = "orchid-prime"
			description = "tall orchid"
		case 4, 5:
			description = "orchid family"
		}

		status := "active"
		if id > 20 {
			status = "inactive"
		}

		createdAt := time.Date(2024, time.January, id, 12, 0, 0, 0, time.UTC)

		if _, err := db.Pool.Exec(ctx, `
			INSERT INTO plants (id, name, description, status, price, category_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, name, description, status, float64(id*2), id%3+1, createdAt,
		); err != nil {
			return fmt.Errorf("insert plant %d: %w", id, err)
		}
	}

	// keep the sequences past the seeded ids
	for _, stmt := range []string{
		`SELECT setval('categories_id_seq', 3)`,
		`SELECT setval('plants_id_seq', 25)`,
	} {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bump sequence: %w", err)
		}
	}
	return nil
}

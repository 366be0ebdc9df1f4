package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/config"
)

// Usage: migrations <name>  runs every file matching <name>, e.g. "up" or "0001_create_table_rows.down".
func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msg("a migration name is required")
	}
	migrationName := os.Args[1]

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found")
	}

	db, err := sql.Open("postgres", config.DatabaseFromEnv(os.Getenv).ConnString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	basePath := filepath.Join(".", "internal", "adapters", "repository", "postgres", "migrations")
	files, err := migrationFiles(basePath, migrationName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to find migration")
	}

	for _, name := range files {
		fileContent, err := os.ReadFile(filepath.Join(basePath, name))
		if err != nil {
			log.Fatal().Err(err).Str("file", name).Msg("failed to read migration")
		}
		if _, err := db.Exec(string(fileContent)); err != nil {
			log.Fatal().Err(err).Str("file", name).Msg("failed to execute migration")
		}
		log.Info().Str("file", name).Msg("migration file executed successfully")
	}
}

// migrationFiles returns the matching files in execution order. Down
// migrations run newest first.
func migrationFiles(basePath string, migrationName string) ([]string, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, f := range entries {
		if !f.IsDir() && regex.MatchString(f.Name()) {
			names = append(names, f.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("migration file not found")
	}

	sort.Strings(names)
	if regexp.MustCompile(`down$`).MatchString(migrationName) {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}
	return names, nil
}

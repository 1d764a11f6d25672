package presets

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"pyramid-engine/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore persists presets in SQLite so operators can refresh the
// reference data without rebuilding the binary.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens the preset database and applies embedded migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func applyMigrations(db *sql.DB) error {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, name := range files {
		stmt, err := migrationsFS.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(stmt)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put inserts or replaces one preset.
func (s *SQLiteStore) Put(ctx context.Context, p model.CountryData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return put(ctx, s.sqlDB, p)
}

// Import writes presets in one transaction.
func (s *SQLiteStore) Import(ctx context.Context, presets []model.CountryData) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	for _, p := range presets {
		if err := put(ctx, tx, p); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func put(ctx context.Context, db execer, p model.CountryData) error {
	if err := p.Validate(); err != nil {
		return err
	}
	male, err := json.Marshal(p.MalePyramid)
	if err != nil {
		return fmt.Errorf("encode male pyramid: %w", err)
	}
	female, err := json.Marshal(p.FemalePyramid)
	if err != nil {
		return fmt.Errorf("encode female pyramid: %w", err)
	}

	_, err = db.ExecContext(
		ctx,
		`INSERT INTO presets (
		   name, display_name, population,
		   birth_rate, death_rate, migration_rate,
		   male_pyramid, female_pyramid,
		   gdp, life, urban, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   display_name = excluded.display_name,
		   population = excluded.population,
		   birth_rate = excluded.birth_rate,
		   death_rate = excluded.death_rate,
		   migration_rate = excluded.migration_rate,
		   male_pyramid = excluded.male_pyramid,
		   female_pyramid = excluded.female_pyramid,
		   gdp = excluded.gdp,
		   life = excluded.life,
		   urban = excluded.urban,
		   updated_at = excluded.updated_at`,
		model.Key(p.Name),
		strings.TrimSpace(p.Name),
		p.Population,
		nullFloat(p.BirthRate),
		nullFloat(p.DeathRate),
		nullFloat(p.MigrationRate),
		string(male),
		string(female),
		p.GDP,
		p.Life,
		p.Urban,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put preset %s: %w", p.Name, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (model.CountryData, error) {
	if err := ctx.Err(); err != nil {
		return model.CountryData{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT display_name, population, birth_rate, death_rate, migration_rate,
		        male_pyramid, female_pyramid, gdp, life, urban
		   FROM presets WHERE name = ?`,
		model.Key(name),
	)

	var (
		p                      model.CountryData
		birth, death, mig      sql.NullFloat64
		malePyramid, femalePyr string
	)
	err := row.Scan(&p.Name, &p.Population, &birth, &death, &mig, &malePyramid, &femalePyr, &p.GDP, &p.Life, &p.Urban)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CountryData{}, ErrNotFound
	}
	if err != nil {
		return model.CountryData{}, fmt.Errorf("get preset %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(malePyramid), &p.MalePyramid); err != nil {
		return model.CountryData{}, fmt.Errorf("decode male pyramid: %w", err)
	}
	if err := json.Unmarshal([]byte(femalePyr), &p.FemalePyramid); err != nil {
		return model.CountryData{}, fmt.Errorf("decode female pyramid: %w", err)
	}
	p.BirthRate = floatPtr(birth)
	p.DeathRate = floatPtr(death)
	p.MigrationRate = floatPtr(mig)
	return p, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT name FROM presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan preset: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count reports how many presets are stored.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM presets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count presets: %w", err)
	}
	return n, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements the DB interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLiteDB) Migrate() error {
	baseMigrations := []string{
		`CREATE TABLE IF NOT EXISTS scores (
			id TEXT PRIMARY KEY,
			player_name TEXT NOT NULL,
			score INTEGER NOT NULL,
			grade TEXT NOT NULL,
			final_temp REAL NOT NULL,
			target_temp REAL NOT NULL,
			cost_savings TEXT NOT NULL DEFAULT '0',
			co_emissions REAL NOT NULL DEFAULT 0,
			time_used INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			tuning TEXT NOT NULL,
			seed TEXT NOT NULL,
			ticks INTEGER NOT NULL,
			final_temp REAL NOT NULL,
			final_o2 REAL NOT NULL,
			target_temp REAL NOT NULL,
			cost_savings TEXT NOT NULL DEFAULT '0',
			cumulative_co REAL NOT NULL DEFAULT 0,
			cumulative_co2 REAL NOT NULL DEFAULT 0,
			score INTEGER NOT NULL,
			grade TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score DESC, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_created_at ON scores(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_created_at ON episodes(created_at DESC)`,
	}

	for _, migration := range baseMigrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("base migration failed: %w", err)
		}
	}

	// Add columns introduced after the first schema shipped.
	alterMigrations := []string{
		`ALTER TABLE scores ADD COLUMN feedback TEXT`,
	}

	for _, migration := range alterMigrations {
		if _, err := s.db.Exec(migration); err != nil {
			if !isDuplicateColumnError(err) {
				return fmt.Errorf("alter migration failed: %w", err)
			}
		}
	}

	return nil
}

// isDuplicateColumnError checks if the error is a duplicate column error
func isDuplicateColumnError(err error) bool {
	return strings.Contains(err.Error(), "duplicate column name")
}

// SubmitScore inserts a leaderboard row
func (s *SQLiteDB) SubmitScore(row *ScoreRow) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}

	query := `INSERT INTO scores (
		id, player_name, score, grade, final_temp, target_temp,
		cost_savings, co_emissions, time_used, feedback
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var feedback sql.NullString
	if row.Feedback != "" {
		feedback = sql.NullString{String: row.Feedback, Valid: true}
	}

	_, err := s.db.Exec(query,
		row.ID, row.PlayerName, row.Score, row.Grade, row.FinalTemp,
		row.TargetTemp, row.CostSavings.String(), row.COEmissions,
		row.TimeUsed, feedback,
	)
	return err
}

const scoreColumns = `id, player_name, score, grade, final_temp, target_temp,
	cost_savings, co_emissions, time_used, feedback, created_at`

func scanScore(scanner interface{ Scan(...any) error }) (*ScoreRow, error) {
	var row ScoreRow
	var costSavings string
	var feedback sql.NullString

	err := scanner.Scan(
		&row.ID, &row.PlayerName, &row.Score, &row.Grade, &row.FinalTemp,
		&row.TargetTemp, &costSavings, &row.COEmissions, &row.TimeUsed,
		&feedback, &row.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	row.CostSavings, err = decimal.NewFromString(costSavings)
	if err != nil {
		return nil, fmt.Errorf("invalid cost_savings %q: %w", costSavings, err)
	}
	if feedback.Valid {
		row.Feedback = feedback.String
	}
	return &row, nil
}

// GetScore retrieves a leaderboard row by ID
func (s *SQLiteDB) GetScore(id string) (*ScoreRow, error) {
	query := `SELECT ` + scoreColumns + ` FROM scores WHERE id = ?`
	return scanScore(s.db.QueryRow(query, id))
}

// TopScores retrieves the highest scores, best first. Ties break by
// earliest submission.
func (s *SQLiteDB) TopScores(limit int) ([]ScoreRow, error) {
	if limit <= 0 {
		limit = 10
	}

	// created_at has second resolution; rowid breaks same-second ties by
	// insertion order.
	query := `SELECT ` + scoreColumns + ` FROM scores
		ORDER BY score DESC, created_at ASC, rowid ASC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top scores: %w", err)
	}
	defer rows.Close()

	var scores []ScoreRow
	for rows.Next() {
		row, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, *row)
	}
	return scores, rows.Err()
}

// ListScores retrieves leaderboard rows with pagination and optional
// grade filtering
func (s *SQLiteDB) ListScores(query ScoresQuery) (*ScoresList, error) {
	whereClause := ""
	args := []any{}

	if query.Grade != "" {
		whereClause = "WHERE grade = ?"
		args = append(args, query.Grade)
	}

	countQuery := "SELECT COUNT(*) FROM scores " + whereClause
	var totalCount int
	if err := s.db.QueryRow(countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	if query.PerPage <= 0 {
		query.PerPage = 50
	}
	if query.Page <= 0 {
		query.Page = 1
	}

	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	mainQuery := `SELECT ` + scoreColumns + ` FROM scores ` + whereClause + `
		ORDER BY score DESC, created_at ASC, rowid ASC
		LIMIT ? OFFSET ?`
	args = append(args, query.PerPage, offset)

	rows, err := s.db.Query(mainQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var scores []ScoreRow
	for rows.Next() {
		row, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, *row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}

	return &ScoresList{
		Scores:     scores,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

// SaveEpisode archives a finished episode
func (s *SQLiteDB) SaveEpisode(row *EpisodeRow) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}

	query := `INSERT INTO episodes (
		id, tuning, seed, ticks, final_temp, final_o2, target_temp,
		cost_savings, cumulative_co, cumulative_co2, score, grade
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		row.ID, row.Tuning, row.Seed, row.Ticks, row.FinalTemp, row.FinalO2,
		row.TargetTemp, row.CostSavings.String(), row.CumulativeCO,
		row.CumulativeCO2, row.Score, row.Grade,
	)
	return err
}

const episodeColumns = `id, tuning, seed, ticks, final_temp, final_o2, target_temp,
	cost_savings, cumulative_co, cumulative_co2, score, grade, created_at`

func scanEpisode(scanner interface{ Scan(...any) error }) (*EpisodeRow, error) {
	var row EpisodeRow
	var costSavings string

	err := scanner.Scan(
		&row.ID, &row.Tuning, &row.Seed, &row.Ticks, &row.FinalTemp,
		&row.FinalO2, &row.TargetTemp, &costSavings, &row.CumulativeCO,
		&row.CumulativeCO2, &row.Score, &row.Grade, &row.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	row.CostSavings, err = decimal.NewFromString(costSavings)
	if err != nil {
		return nil, fmt.Errorf("invalid cost_savings %q: %w", costSavings, err)
	}
	return &row, nil
}

// GetEpisode retrieves an archived episode by ID
func (s *SQLiteDB) GetEpisode(id string) (*EpisodeRow, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE id = ?`
	return scanEpisode(s.db.QueryRow(query, id))
}

// RecentEpisodes retrieves the most recently archived episodes
func (s *SQLiteDB) RecentEpisodes(limit int) ([]EpisodeRow, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + episodeColumns + ` FROM episodes
		ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []EpisodeRow
	for rows.Next() {
		row, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		episodes = append(episodes, *row)
	}
	return episodes, rows.Err()
}

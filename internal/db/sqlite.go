package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Campaign tracks a player's run across stages.
type Campaign struct {
	CampaignID      string `json:"campaign_id"`
	PlayerID        string `json:"player_id"`
	CurrentStageNum int    `json:"current_stage_num"`
	TotalScore      int    `json:"total_score"`
	Lives           int    `json:"lives"`
	Bombs           int    `json:"bombs"`
	PowerLevel      int    `json:"power_level"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// Session is one play of one stage within a campaign.
type Session struct {
	SessionID      string         `json:"session_id"`
	CampaignID     string         `json:"campaign_id"`
	GameID         string         `json:"game_id"`
	StageNum       int            `json:"stage_num"`
	PlayerStats    map[string]any `json:"player_stats"`
	Score          int            `json:"score"`
	Completed      bool           `json:"completed"`
	CompletionTime string         `json:"completion_time,omitempty"`
	CreatedAt      string         `json:"created_at"`
}

// CompletedStage is a generated game saved to the shared pool for other
// players to draw from.
type CompletedStage struct {
	StageID         string         `json:"stage_id"`
	CreatorPlayerID string         `json:"creator_player_id"`
	GameData        map[string]any `json:"game_data,omitempty"`
	PlayerPrompt    string         `json:"player_prompt"`
	Difficulty      string         `json:"difficulty"`
	TimesPlayed     int            `json:"times_played"`
	AverageScore    int            `json:"average_score"`
	CreatedAt       string         `json:"created_at"`
}

// Stats summarizes row counts per table.
type Stats struct {
	Campaigns       int    `json:"campaigns"`
	Sessions        int    `json:"sessions"`
	CompletedStages int    `json:"completed_stages"`
	DatabasePath    string `json:"database_path"`
}

// DB wraps database operations
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// NewDB creates a new database connection
func NewDB(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{conn: conn, path: dbPath}

	// Run migrations
	if err := db.migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate runs database migrations
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS campaigns (
		campaign_id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL,
		current_stage_num INTEGER NOT NULL DEFAULT 0,
		total_score INTEGER NOT NULL DEFAULT 0,
		lives INTEGER NOT NULL DEFAULT 3,
		bombs INTEGER NOT NULL DEFAULT 3,
		power_level INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS game_sessions (
		session_id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		game_id TEXT NOT NULL,
		stage_num INTEGER NOT NULL,
		player_stats TEXT NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		completion_time TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (campaign_id) REFERENCES campaigns(campaign_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS completed_stages (
		stage_id TEXT PRIMARY KEY,
		creator_player_id TEXT NOT NULL,
		game_data TEXT NOT NULL,
		player_prompt TEXT NOT NULL,
		difficulty TEXT NOT NULL DEFAULT 'normal',
		times_played INTEGER NOT NULL DEFAULT 0,
		average_score INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_campaigns_player_id ON campaigns(player_id);
	CREATE INDEX IF NOT EXISTS idx_game_sessions_campaign_id ON game_sessions(campaign_id);
	CREATE INDEX IF NOT EXISTS idx_completed_stages_creator ON completed_stages(creator_player_id);
	CREATE INDEX IF NOT EXISTS idx_completed_stages_difficulty ON completed_stages(difficulty);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// CreateCampaign creates a fresh campaign for a player and returns its ID.
func (db *DB) CreateCampaign(playerID string) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	campaignID := uuid.New().String()
	_, err := db.conn.Exec(`
		INSERT INTO campaigns (campaign_id, player_id)
		VALUES (?, ?)
	`, campaignID, playerID)
	if err != nil {
		return "", err
	}
	return campaignID, nil
}

// GetCampaign returns a campaign by ID, or ErrNotFound.
func (db *DB) GetCampaign(campaignID string) (*Campaign, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return scanCampaign(db.conn.QueryRow(`
		SELECT campaign_id, player_id, current_stage_num, total_score,
		       lives, bombs, power_level, created_at, updated_at
		FROM campaigns WHERE campaign_id = ?
	`, campaignID))
}

// GetPlayerCampaigns returns all campaigns for a player, newest first.
func (db *DB) GetPlayerCampaigns(playerID string) ([]*Campaign, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT campaign_id, player_id, current_stage_num, total_score,
		       lives, bombs, power_level, created_at, updated_at
		FROM campaigns
		WHERE player_id = ?
		ORDER BY updated_at DESC
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// campaignFields are the columns UpdateCampaign accepts; anything else in
// the update map is ignored.
var campaignFields = map[string]bool{
	"current_stage_num": true,
	"total_score":       true,
	"lives":             true,
	"bombs":             true,
	"power_level":       true,
}

// UpdateCampaign updates the given campaign columns. Returns false when no
// recognized fields were supplied or the campaign does not exist.
func (db *DB) UpdateCampaign(campaignID string, updates map[string]any) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var clauses []string
	var values []any
	for field, value := range updates {
		if campaignFields[field] {
			clauses = append(clauses, field+" = ?")
			values = append(values, value)
		}
	}
	if len(clauses) == 0 {
		return false, nil
	}

	clauses = append(clauses, "updated_at = ?")
	values = append(values, time.Now().Format(time.RFC3339), campaignID)

	result, err := db.conn.Exec(fmt.Sprintf(`
		UPDATE campaigns SET %s WHERE campaign_id = ?
	`, strings.Join(clauses, ", ")), values...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CreateSession records the start of a stage play and returns its ID.
func (db *DB) CreateSession(campaignID, gameID string, stageNum int, playerStats map[string]any) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	sessionID := uuid.New().String()
	statsJSON, err := json.Marshal(playerStats)
	if err != nil {
		return "", fmt.Errorf("failed to serialize player stats: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO game_sessions (session_id, campaign_id, game_id, stage_num, player_stats, score)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sessionID, campaignID, gameID, stageNum, string(statsJSON), intStat(playerStats, "score"))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// CompleteSession marks a session finished with its final stats. Returns
// false when the session does not exist.
func (db *DB) CompleteSession(sessionID string, finalStats map[string]any) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	statsJSON, err := json.Marshal(finalStats)
	if err != nil {
		return false, fmt.Errorf("failed to serialize final stats: %w", err)
	}

	result, err := db.conn.Exec(`
		UPDATE game_sessions
		SET completed = 1, completion_time = ?, player_stats = ?, score = ?
		WHERE session_id = ?
	`, time.Now().Format(time.RFC3339), string(statsJSON), intStat(finalStats, "score"), sessionID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetCampaignSessions returns all sessions for a campaign, newest first.
func (db *DB) GetCampaignSessions(campaignID string) ([]*Session, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT session_id, campaign_id, game_id, stage_num, player_stats,
		       score, completed, completion_time, created_at
		FROM game_sessions
		WHERE campaign_id = ?
		ORDER BY created_at DESC
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var (
			s              Session
			statsJSON      string
			completed      int
			completionTime sql.NullString
		)
		if err := rows.Scan(&s.SessionID, &s.CampaignID, &s.GameID, &s.StageNum,
			&statsJSON, &s.Score, &completed, &completionTime, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(statsJSON), &s.PlayerStats); err != nil {
			return nil, fmt.Errorf("corrupt player_stats for session %s: %w", s.SessionID, err)
		}
		s.Completed = completed != 0
		if completionTime.Valid {
			s.CompletionTime = completionTime.String
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// SaveCompletedStage puts a generated game into the shared pool, keyed by its
// game_id so re-saving the same game replaces the row.
func (db *DB) SaveCompletedStage(creatorPlayerID string, gameData map[string]any, playerPrompt, difficulty string) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stageID, _ := gameData["game_id"].(string)
	if stageID == "" {
		stageID = uuid.New().String()
	}
	dataJSON, err := json.Marshal(gameData)
	if err != nil {
		return "", fmt.Errorf("failed to serialize game data: %w", err)
	}
	if difficulty == "" {
		difficulty = "normal"
	}

	_, err = db.conn.Exec(`
		INSERT OR REPLACE INTO completed_stages
		(stage_id, creator_player_id, game_data, player_prompt, difficulty)
		VALUES (?, ?, ?, ?, ?)
	`, stageID, creatorPlayerID, string(dataJSON), playerPrompt, difficulty)
	if err != nil {
		return "", err
	}
	return stageID, nil
}

// GetRandomStage draws a random shared stage, optionally excluding one
// creator and filtering by difficulty. Returns ErrNotFound when the pool
// has no matching stage.
func (db *DB) GetRandomStage(excludePlayerID, difficulty string) (*CompletedStage, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	query := `
		SELECT stage_id, creator_player_id, game_data, player_prompt,
		       difficulty, times_played, average_score, created_at
		FROM completed_stages WHERE 1=1`
	var params []any
	if excludePlayerID != "" {
		query += " AND creator_player_id != ?"
		params = append(params, excludePlayerID)
	}
	if difficulty != "" {
		query += " AND difficulty = ?"
		params = append(params, difficulty)
	}
	query += " ORDER BY RANDOM() LIMIT 1"

	var (
		s        CompletedStage
		dataJSON string
	)
	err := db.conn.QueryRow(query, params...).Scan(&s.StageID, &s.CreatorPlayerID,
		&dataJSON, &s.PlayerPrompt, &s.Difficulty, &s.TimesPlayed, &s.AverageScore, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(dataJSON), &s.GameData); err != nil {
		return nil, fmt.Errorf("corrupt game_data for stage %s: %w", s.StageID, err)
	}
	return &s, nil
}

// IncrementStagePlays bumps a stage's play count and folds the score into
// its running average.
func (db *DB) IncrementStagePlays(stageID string, score int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var timesPlayed, avgScore int
	err = tx.QueryRow(`
		SELECT times_played, average_score FROM completed_stages WHERE stage_id = ?
	`, stageID).Scan(&timesPlayed, &avgScore)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	newTimesPlayed := timesPlayed + 1
	newAvgScore := (avgScore*timesPlayed + score) / newTimesPlayed

	_, err = tx.Exec(`
		UPDATE completed_stages SET times_played = ?, average_score = ?
		WHERE stage_id = ?
	`, newTimesPlayed, newAvgScore, stageID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetStageStats returns a shared stage's metadata without its game data.
func (db *DB) GetStageStats(stageID string) (*CompletedStage, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var s CompletedStage
	err := db.conn.QueryRow(`
		SELECT stage_id, creator_player_id, player_prompt, difficulty,
		       times_played, average_score, created_at
		FROM completed_stages WHERE stage_id = ?
	`, stageID).Scan(&s.StageID, &s.CreatorPlayerID, &s.PlayerPrompt, &s.Difficulty,
		&s.TimesPlayed, &s.AverageScore, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStats returns row counts per table.
func (db *DB) GetStats() (*Stats, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stats := &Stats{DatabasePath: db.path}
	for _, q := range []struct {
		table string
		dest  *int
	}{
		{"campaigns", &stats.Campaigns},
		{"game_sessions", &stats.Sessions},
		{"completed_stages", &stats.CompletedStages},
	} {
		if err := db.conn.QueryRow("SELECT COUNT(*) FROM " + q.table).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*Campaign, error) {
	var c Campaign
	err := row.Scan(&c.CampaignID, &c.PlayerID, &c.CurrentStageNum, &c.TotalScore,
		&c.Lives, &c.Bombs, &c.PowerLevel, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// intStat pulls an integer stat out of a loosely typed stats map; JSON
// decoding yields float64 for numbers.
func intStat(stats map[string]any, key string) int {
	switch v := stats[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// DB represents the database interface
type DB interface {
	Close() error
	Migrate() error
	SubmitScore(row *ScoreRow) error
	GetScore(id string) (*ScoreRow, error)
	TopScores(limit int) ([]ScoreRow, error)
	ListScores(query ScoresQuery) (*ScoresList, error)
	SaveEpisode(row *EpisodeRow) error
	GetEpisode(id string) (*EpisodeRow, error)
	RecentEpisodes(limit int) ([]EpisodeRow, error)
}

// ScoresQuery represents query parameters for listing leaderboard rows
type ScoresQuery struct {
	Grade   string `json:"grade,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// ScoresList represents a paginated leaderboard response
type ScoresList struct {
	Scores     []ScoreRow `json:"scores"`
	TotalCount int        `json:"totalCount"`
	Page       int        `json:"page"`
	PerPage    int        `json:"perPage"`
	TotalPages int        `json:"totalPages"`
}

// ScoreRow is one leaderboard submission. Cost savings are stored as
// decimal text so dollar totals survive round trips exactly.
type ScoreRow struct {
	ID          string          `json:"id" db:"id"`
	PlayerName  string          `json:"player_name" db:"player_name"`
	Score       int             `json:"score" db:"score"`
	Grade       string          `json:"grade" db:"grade"`
	FinalTemp   float64         `json:"final_temp" db:"final_temp"`
	TargetTemp  float64         `json:"target_temp" db:"target_temp"`
	CostSavings decimal.Decimal `json:"cost_savings" db:"cost_savings"`
	COEmissions float64         `json:"co_emissions" db:"co_emissions"`
	TimeUsed    int             `json:"time_used" db:"time_used"` // whole seconds
	Feedback    string          `json:"feedback,omitempty" db:"feedback"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// EpisodeRow archives a finished episode for later inspection
type EpisodeRow struct {
	ID            string          `json:"id" db:"id"`
	Tuning        string          `json:"tuning" db:"tuning"`
	Seed          string          `json:"seed" db:"seed"`
	Ticks         uint64          `json:"ticks" db:"ticks"`
	FinalTemp     float64         `json:"final_temp" db:"final_temp"`
	FinalO2       float64         `json:"final_o2" db:"final_o2"`
	TargetTemp    float64         `json:"target_temp" db:"target_temp"`
	CostSavings   decimal.Decimal `json:"cost_savings" db:"cost_savings"`
	CumulativeCO  float64         `json:"cumulative_co" db:"cumulative_co"`
	CumulativeCO2 float64         `json:"cumulative_co2" db:"cumulative_co2"`
	Score         int             `json:"score" db:"score"`
	Grade         string          `json:"grade" db:"grade"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

package dbsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pixil98/go-gridgame/internal/roster"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Game struct {
	ID         string `gorm:"primaryKey"`
	MainAvatar *int
	Parameters string // JSON object of name to value
}

func (Game) TableName() string { return "games" }

type GameParticipant struct {
	GameID string `gorm:"primaryKey"`
	UserID int    `gorm:"primaryKey"`
	Code   string
}

func (GameParticipant) TableName() string { return "game_participants" }

func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Source reads a game's roster from the games and game_participants tables.
type Source struct {
	db     *gorm.DB
	gameID string
}

func New(db *gorm.DB, gameID string) *Source {
	return &Source{db: db, gameID: gameID}
}

// Migrate creates the tables when they are missing.
func (s *Source) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Game{}, &GameParticipant{})
}

func (s *Source) Fetch(ctx context.Context) (roster.Roster, error) {
	r, err := s.fetch(ctx)
	if err != nil {
		return roster.Roster{}, &roster.FetchError{Source: "db:" + s.gameID, Err: err}
	}
	return r, nil
}

func (s *Source) fetch(ctx context.Context) (roster.Roster, error) {
	db := s.db.WithContext(ctx)

	var game Game
	err := db.Where(&Game{ID: s.gameID}).First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return roster.Roster{}, fmt.Errorf("game %q not found", s.gameID)
		}
		return roster.Roster{}, err
	}

	var rows []GameParticipant
	err = db.Where(&GameParticipant{GameID: s.gameID}).Order("user_id").Find(&rows).Error
	if err != nil {
		return roster.Roster{}, err
	}

	return toRoster(game, rows)
}

func toRoster(game Game, rows []GameParticipant) (roster.Roster, error) {
	var params map[string]string
	if game.Parameters != "" {
		if err := json.Unmarshal([]byte(game.Parameters), &params); err != nil {
			return roster.Roster{}, fmt.Errorf("parsing parameters of game %q: %w", game.ID, err)
		}
	}

	r := roster.Roster{MainAvatar: game.MainAvatar}
	for _, row := range rows {
		r.Participants = append(r.Participants, roster.Participant{
			ID:         row.UserID,
			Code:       row.Code,
			Parameters: params,
		})
	}
	return r, nil
}

// internal/database/results.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kaspell/wordwire/internal/game"
	"github.com/kaspell/wordwire/internal/models"
)

// GameResult is the final outcome of one lobby's game.
type GameResult struct {
	LobbyID  string
	Winner   game.Team
	Reason   game.WinReason
	PendingA int
	PendingB int
	Rosters  map[game.Team][]*models.Player
}

// RecordGameResult persists the finished game and its per-player rows in
// one transaction. Callers must only invoke this with a non-nil pool.
func RecordGameResult(ctx context.Context, res GameResult) error {
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (lobby_id, winner, reason, pending_a, pending_b)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (lobby_id)
			DO UPDATE SET winner=$2, reason=$3, pending_a=$4, pending_b=$5
		`
		if _, e := tx.Exec(ctx, upsertGame,
			res.LobbyID, res.Winner.String(), res.Reason.String(), res.PendingA, res.PendingB); e != nil {
			return e
		}

		insertPlayer := `
			INSERT INTO game_players (lobby_id, player_id, name, team, did_win)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (lobby_id, player_id)
			DO UPDATE SET name=$3, team=$4, did_win=$5
		`
		for team, roster := range res.Rosters {
			for _, p := range roster {
				if _, e := tx.Exec(ctx, insertPlayer,
					res.LobbyID, uint32(p.ID), p.Name, team.String(), team == res.Winner); e != nil {
					return e
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert game result: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"embed"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ai-colosseum/server/engine"
	"ai-colosseum/server/rating"
)

//go:embed schema.sql
var schema embed.FS

// DB records finished matches and their distribution plans. The engine
// never touches it; the scheduler feeds it results. A nil *DB disables
// recording entirely.
type DB struct{ *pgxpool.Pool }

func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close(ctx context.Context)      { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

/* -----------------------------
   Result recording
------------------------------*/

// RecordMatch persists a completed battle match: the header row, every
// turn record as JSONB, and the payout plan, in one transaction.
func (db *DB) RecordMatch(ctx context.Context, m *engine.Match) error {
	if db == nil {
		return nil
	}
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            INSERT INTO matches(id, arena_id, tier, game_type, status, winner, draw, prize_pool, turns, ended_at)
            VALUES ($1,$2,$3,'battle',$4,$5,$6,$7,$8,$9)
            ON CONFLICT (id) DO NOTHING
        `, m.ID, m.ArenaID, m.Tier, string(m.Status), nullable(m.Winner), m.Draw, m.PrizePool, len(m.History), time.Now())
		if err != nil {
			return err
		}
		for _, rec := range m.History {
			events, err := json.Marshal(rec.Events)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
                INSERT INTO match_turns(match_id, turn, events)
                VALUES ($1,$2,$3)
                ON CONFLICT (match_id, turn) DO NOTHING
            `, m.ID, rec.Turn, events); err != nil {
				return err
			}
		}
		return insertPayouts(ctx, tx, m.ID, m.Plan)
	})
}

// RecordRPSMatch persists a completed rps match.
func (db *DB) RecordRPSMatch(ctx context.Context, m *engine.RPSMatch) error {
	if db == nil {
		return nil
	}
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            INSERT INTO matches(id, arena_id, tier, game_type, status, winner, draw, prize_pool, turns, ended_at)
            VALUES ($1,$2,$3,'rps',$4,$5,$6,$7,$8,$9)
            ON CONFLICT (id) DO NOTHING
        `, m.ID, m.ArenaID, m.Tier, string(m.Status), nullable(m.Winner), m.Draw, m.PrizePool, len(m.Rounds), time.Now())
		if err != nil {
			return err
		}
		for _, rr := range m.Rounds {
			moves, err := json.Marshal(rr.Moves)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
                INSERT INTO match_turns(match_id, turn, events)
                VALUES ($1,$2,$3)
                ON CONFLICT (match_id, turn) DO NOTHING
            `, m.ID, rr.Round, moves); err != nil {
				return err
			}
		}
		return insertPayouts(ctx, tx, m.ID, m.Plan)
	})
}

func insertPayouts(ctx context.Context, tx pgx.Tx, matchID string, plan []engine.Payout) error {
	for _, p := range plan {
		if _, err := tx.Exec(ctx, `
            INSERT INTO payouts(match_id, agent_id, amount)
            VALUES ($1,$2,$3)
            ON CONFLICT (match_id, agent_id) DO NOTHING
        `, matchID, p.AgentID, p.Amount); err != nil {
			return err
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

/* -----------------------------
   Read helpers for the API
------------------------------*/

// MatchSummary is the header row of a recorded match.
type MatchSummary struct {
	ID        string    `json:"id"`
	ArenaID   string    `json:"arenaId"`
	Tier      string    `json:"tier"`
	GameType  string    `json:"gameType"`
	Status    string    `json:"status"`
	Winner    *string   `json:"winner"`
	Draw      bool      `json:"draw"`
	PrizePool int64     `json:"prizePool"`
	Turns     int       `json:"turns"`
	EndedAt   time.Time `json:"endedAt"`
}

// RecentMatches lists the latest recorded matches, newest first.
func (db *DB) RecentMatches(ctx context.Context, limit int) ([]MatchSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(ctx, `
        SELECT id, arena_id, tier, game_type, status, winner, draw, prize_pool, turns, ended_at
          FROM matches
         ORDER BY ended_at DESC
         LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MatchSummary
	for rows.Next() {
		var m MatchSummary
		if err := rows.Scan(&m.ID, &m.ArenaID, &m.Tier, &m.GameType, &m.Status, &m.Winner, &m.Draw, &m.PrizePool, &m.Turns, &m.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Payouts returns the recorded distribution plan for one match.
func (db *DB) Payouts(ctx context.Context, matchID string) ([]engine.Payout, error) {
	rows, err := db.Query(ctx, `
        SELECT agent_id, amount FROM payouts WHERE match_id = $1 ORDER BY agent_id
    `, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []engine.Payout
	for rows.Next() {
		var p engine.Payout
		if err := rows.Scan(&p.AgentID, &p.Amount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Ratings fetches ladder entries for the given agents, seeding defaults
// for any agent not yet rated.
func (db *DB) Ratings(ctx context.Context, agents map[string]string) (map[string]*rating.Rating, error) {
	out := make(map[string]*rating.Rating, len(agents))
	ids := make([]string, 0, len(agents))
	for id, name := range agents {
		out[id] = &rating.Rating{AgentID: id, Name: name, Score: rating.StartScore}
		ids = append(ids, id)
	}
	rows, err := db.Query(ctx, `
        SELECT agent_id, name, score, matches FROM ratings WHERE agent_id = ANY($1)
    `, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var r rating.Rating
		if err := rows.Scan(&r.AgentID, &r.Name, &r.Score, &r.Matches); err != nil {
			return nil, err
		}
		if name, ok := agents[r.AgentID]; ok && name != "" {
			r.Name = name
		}
		out[r.AgentID] = &r
	}
	return out, rows.Err()
}

// SaveRatings upserts ladder entries in one transaction.
func (db *DB) SaveRatings(ctx context.Context, ratings []*rating.Rating) error {
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		for _, r := range ratings {
			if _, err := tx.Exec(ctx, `
                INSERT INTO ratings (agent_id, name, score, matches, updated_at)
                VALUES ($1, $2, $3, $4, now())
                ON CONFLICT (agent_id) DO UPDATE
                   SET name = EXCLUDED.name,
                       score = EXCLUDED.score,
                       matches = EXCLUDED.matches,
                       updated_at = now()
            `, r.AgentID, r.Name, r.Score, r.Matches); err != nil {
				return err
			}
		}
		return nil
	})
}

// Leaderboard lists the top-rated agents.
func (db *DB) Leaderboard(ctx context.Context, limit int) ([]rating.Rating, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(ctx, `
        SELECT agent_id, name, score, matches FROM ratings ORDER BY score DESC LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []rating.Rating
	for rows.Next() {
		var r rating.Rating
		if err := rows.Scan(&r.AgentID, &r.Name, &r.Score, &r.Matches); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"polydros.ai/internal/sim/engine"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteIndex is a queryable read index over completed runs. Tick rows arrive
// asynchronously while a run executes and may be dropped under load; card rows
// are written synchronously by IndexRun once the run is done.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick atomic.Uint64
}

type req struct {
	runID string
	tick  engine.TickSummary
}

type Stats struct {
	DropTickTotal uint64 `json:"drop_tick_total"`
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: an in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			catalog_digest TEXT NOT NULL,
			indexed_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			events INTEGER NOT NULL,
			total_cards INTEGER NOT NULL,
			price_index REAL NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS cards (
			run_id TEXT NOT NULL,
			instance_id TEXT NOT NULL,
			card_id TEXT NOT NULL,
			name TEXT NOT NULL,
			color TEXT NOT NULL,
			rarity TEXT NOT NULL,
			holo INTEGER NOT NULL,
			owner_id INTEGER NOT NULL,
			condition TEXT NOT NULL,
			quality REAL NOT NULL,
			desirability REAL NOT NULL,
			current_price REAL NOT NULL,
			acquired_tick INTEGER NOT NULL,
			acquired_price REAL NOT NULL,
			wins INTEGER NOT NULL,
			losses INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, instance_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cards_run_owner ON cards(run_id, owner_id);`,
		`CREATE INDEX IF NOT EXISTS idx_cards_run_rarity ON cards(run_id, rarity);`,
		`CREATE INDEX IF NOT EXISTS idx_cards_run_price ON cards(run_id, current_price);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteTick queues one timeseries entry. It never blocks the caller.
func (s *SQLiteIndex) WriteTick(runID string, ts engine.TickSummary) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{runID: runID, tick: ts}:
	default:
		s.dropTick.Add(1)
	}
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		DropTickTotal: s.dropTick.Load(),
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
	}
}

// IndexRun stores the run header and every tracked card instance of res.
func (s *SQLiteIndex) IndexRun(ctx context.Context, runID string, res *engine.Result) error {
	if s == nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs(run_id,seed,agents,ticks,catalog_digest,indexed_at) VALUES(?,?,?,?,?,?)`,
		runID, res.Config.Seed, len(res.Agents), res.Final.Tick, res.CatalogDigest, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("index run %s: %w", runID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE run_id=?`, runID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cards(
		run_id,instance_id,card_id,name,color,rarity,holo,owner_id,condition,quality,desirability,
		current_price,acquired_tick,acquired_price,wins,losses,raw_json
	) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, a := range res.Agents {
		for _, inst := range a.CardInstances {
			raw, err := json.Marshal(inst)
			if err != nil {
				return fmt.Errorf("marshal card %s: %w", inst.InstanceID, err)
			}
			if _, err := stmt.ExecContext(ctx,
				runID, inst.InstanceID, inst.CardID, inst.Name, inst.Color, string(inst.Rarity), boolInt(inst.Holo),
				inst.OwnerID, string(inst.Condition), inst.Quality, inst.Desirability,
				inst.CurrentPrice, inst.AcquiredTick, inst.AcquiredPrice, inst.Wins, inst.Losses, string(raw),
			); err != nil {
				return fmt.Errorf("index card %s: %w", inst.InstanceID, err)
			}
		}
	}
	return tx.Commit()
}

// CardQuery filters SearchCards. Zero values do not filter.
type CardQuery struct {
	Name      string
	Rarity    string
	Condition string
	OwnerID   int
	MinPrice  float64
	MaxPrice  float64
	Limit     int
	Offset    int
}

type CardRow struct {
	InstanceID   string  `json:"card_instance_id"`
	CardID       string  `json:"card_id"`
	Name         string  `json:"card_name"`
	Color        string  `json:"card_color"`
	Rarity       string  `json:"card_rarity"`
	Holo         bool    `json:"is_hologram"`
	OwnerID      int     `json:"owner_id"`
	Condition    string  `json:"condition"`
	Quality      float64 `json:"quality_score"`
	Desirability float64 `json:"desirability"`
	CurrentPrice float64 `json:"current_price"`
	AcquiredTick int     `json:"acquired_tick"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
}

const maxSearchLimit = 500

// SearchCards returns matching instances ordered by price descending, then id.
func (s *SQLiteIndex) SearchCards(ctx context.Context, runID string, q CardQuery) ([]CardRow, error) {
	where := []string{"run_id = ?"}
	args := []any{runID}
	if q.Name != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+q.Name+"%")
	}
	if q.Rarity != "" {
		where = append(where, "rarity = ?")
		args = append(args, q.Rarity)
	}
	if q.Condition != "" {
		where = append(where, "condition = ?")
		args = append(args, q.Condition)
	}
	if q.OwnerID > 0 {
		where = append(where, "owner_id = ?")
		args = append(args, q.OwnerID)
	}
	if q.MinPrice > 0 {
		where = append(where, "current_price >= ?")
		args = append(args, q.MinPrice)
	}
	if q.MaxPrice > 0 {
		where = append(where, "current_price <= ?")
		args = append(args, q.MaxPrice)
	}
	limit := q.Limit
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	args = append(args, limit, max(q.Offset, 0))

	rows, err := s.db.QueryContext(ctx, `SELECT instance_id,card_id,name,color,rarity,holo,owner_id,condition,
		quality,desirability,current_price,acquired_tick,wins,losses
		FROM cards WHERE `+strings.Join(where, " AND ")+`
		ORDER BY current_price DESC, instance_id ASC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("search cards: %w", err)
	}
	defer rows.Close()

	out := []CardRow{}
	for rows.Next() {
		var r CardRow
		var holo int
		if err := rows.Scan(&r.InstanceID, &r.CardID, &r.Name, &r.Color, &r.Rarity, &holo, &r.OwnerID, &r.Condition,
			&r.Quality, &r.Desirability, &r.CurrentPrice, &r.AcquiredTick, &r.Wins, &r.Losses); err != nil {
			return nil, err
		}
		r.Holo = holo != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// RarityCounts returns the number of instances per rarity for a run.
func (s *SQLiteIndex) RarityCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT rarity, COUNT(*) FROM cards WHERE run_id=? GROUP BY rarity`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var r string
		var n int
		if err := rows.Scan(&r, &n); err != nil {
			return nil, err
		}
		out[r] = n
	}
	return out, rows.Err()
}

// TickDigests returns the indexed digests of a run keyed by tick.
func (s *SQLiteIndex) TickDigests(ctx context.Context, runID string) (map[int]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tick, digest FROM ticks WHERE run_id=? ORDER BY tick`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int]string{}
	for rows.Next() {
		var t int
		var d string
		if err := rows.Scan(&t, &d); err != nil {
			return nil, err
		}
		out[t] = d
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(run_id,tick,digest,events,total_cards,price_index) VALUES(?,?,?,?,?,?)`)
	defer func() {
		if insertTick != nil {
			_ = insertTick.Close()
		}
	}()

	var (
		tx          *sql.Tx
		opCount     int
		commitEvery = 2000
	)
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
	}

	for r := range s.ch {
		if tx == nil {
			txx, err := s.db.BeginTx(ctx, nil)
			if err != nil {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			tx = txx
		}
		priceIndex := 0.0
		if r.tick.MarketSnapshot != nil {
			priceIndex = r.tick.MarketSnapshot.PriceIndex
		}
		if insertTick != nil {
			if _, err := tx.Stmt(insertTick).Exec(r.runID, r.tick.Tick, r.tick.Digest, len(r.tick.Events), r.tick.TotalCards, priceIndex); err != nil {
				_ = tx.Rollback()
				tx = nil
				opCount = 0
				continue
			}
			opCount++
		}
		// Release the single connection whenever the queue drains so readers
		// and IndexRun are not starved.
		if opCount >= commitEvery || len(s.ch) == 0 {
			commit()
		}
	}
	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

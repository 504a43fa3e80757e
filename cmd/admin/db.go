package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dbPath := fs.String("db", "./data/index.sqlite", "sqlite index path")
	runID := fs.String("run", "", "run id (optional; defaults to the latest indexed run)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "runs"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if q != "runs" && strings.TrimSpace(*runID) == "" {
		id, err := latestRunID(db)
		if err != nil {
			fmt.Fprintln(os.Stderr, "latest run:", err)
			os.Exit(1)
		}
		if id == "" {
			fmt.Fprintln(os.Stderr, "no runs indexed")
			os.Exit(2)
		}
		*runID = id
	}

	var rows []any
	switch q {
	case "runs":
		rows, err = queryRuns(db, *limit)
	case "ticks":
		rows, err = queryTicks(db, *runID, *limit)
	case "cards":
		rows, err = queryTopCards(db, *runID, *limit)
	case "rarity":
		rows, err = queryRarity(db, *runID)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-db PATH] [-run ID] [-limit N] runs|ticks|cards|rarity")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		printJSON(r)
	}
}

type runRow struct {
	RunID         string `json:"run_id"`
	Seed          int64  `json:"seed"`
	Agents        int    `json:"agents"`
	Ticks         int    `json:"ticks"`
	CatalogDigest string `json:"catalog_digest"`
	IndexedAt     string `json:"indexed_at"`
}

type tickRow struct {
	RunID      string  `json:"run_id"`
	Tick       int     `json:"tick"`
	Digest     string  `json:"digest"`
	Events     int     `json:"events"`
	TotalCards int     `json:"total_cards"`
	PriceIndex float64 `json:"price_index"`
}

type cardRow struct {
	InstanceID   string  `json:"card_instance_id"`
	Name         string  `json:"name"`
	Rarity       string  `json:"rarity"`
	Holo         bool    `json:"is_hologram"`
	OwnerID      int     `json:"owner_id"`
	Condition    string  `json:"condition"`
	CurrentPrice float64 `json:"current_price"`
}

type rarityRow struct {
	Rarity string `json:"rarity"`
	Count  int    `json:"count"`
}

func queryRuns(db *sql.DB, limit int) ([]any, error) {
	rows, err := db.Query(`SELECT run_id,seed,agents,ticks,catalog_digest,indexed_at FROM runs ORDER BY indexed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r runRow
		if err := rows.Scan(&r.RunID, &r.Seed, &r.Agents, &r.Ticks, &r.CatalogDigest, &r.IndexedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func queryTicks(db *sql.DB, runID string, limit int) ([]any, error) {
	rows, err := db.Query(`SELECT run_id,tick,digest,events,total_cards,price_index FROM ticks WHERE run_id=? ORDER BY tick DESC LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r tickRow
		if err := rows.Scan(&r.RunID, &r.Tick, &r.Digest, &r.Events, &r.TotalCards, &r.PriceIndex); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func queryTopCards(db *sql.DB, runID string, limit int) ([]any, error) {
	rows, err := db.Query(`SELECT instance_id,name,rarity,holo,owner_id,condition,current_price FROM cards WHERE run_id=? ORDER BY current_price DESC, instance_id LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r cardRow
		var holo int
		if err := rows.Scan(&r.InstanceID, &r.Name, &r.Rarity, &holo, &r.OwnerID, &r.Condition, &r.CurrentPrice); err != nil {
			return nil, err
		}
		r.Holo = holo != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func queryRarity(db *sql.DB, runID string) ([]any, error) {
	rows, err := db.Query(`SELECT rarity,COUNT(*) FROM cards WHERE run_id=? GROUP BY rarity ORDER BY rarity`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r rarityRow
		if err := rows.Scan(&r.Rarity, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func latestRunID(db *sql.DB) (string, error) {
	var id sql.NullString
	if err := db.QueryRow(`SELECT run_id FROM runs ORDER BY indexed_at DESC LIMIT 1`).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return id.String, nil
}

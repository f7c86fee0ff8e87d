package main

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"
)

var db *sql.DB

// Table freshness (the table is rebuilt wholesale, never mutated in place)
var (
	tableMutex     sync.Mutex
	tableBuilt     bool
	tableTimestamp time.Time
)

func initDB() {
	var err error

	// Nothing durable here: the analysis table lives in memory and is rebuilt
	// from SteamSpy on every refresh
	db, err = sql.Open("sqlite", ":memory:")
	if err != nil {
		panic(err)
	}

	// Each sqlite connection would get its own :memory: database, so keep one
	db.SetMaxOpenConns(1)

	db.Exec(`
    CREATE TABLE IF NOT EXISTS games (
      appid INTEGER PRIMARY KEY,
      name TEXT,
      genre TEXT,
      owners INTEGER,
      players INTEGER,
      avg_playtime INTEGER
    );
    `)
}

func rebuildTable(rows []GameRow) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM games`); err != nil {
		return err
	}
	for _, r := range rows {
		_, err := tx.Exec(`
			INSERT INTO games (appid, name, genre, owners, players, avg_playtime)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Genre, r.Owners, r.Players, r.AvgPlaytime)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ensureTable rebuilds the analysis table when it is missing or older than the
// cache TTL. Concurrent requests wait; only one build runs at a time.
func ensureTable() error {
	tableMutex.Lock()
	defer tableMutex.Unlock()

	if tableBuilt && time.Since(tableTimestamp) < cacheTTL {
		return nil
	}

	rows, err := buildRows(nil)
	if err != nil {
		return err
	}
	if err := rebuildTable(rows); err != nil {
		return err
	}

	tableBuilt = true
	tableTimestamp = time.Now()
	fmt.Printf("📊 Rebuilt analysis table with %d games\n", len(rows))
	return nil
}

// forceRefresh drops the caches and rebuilds on the next ensureTable
func forceRefresh() {
	resetCaches()
	tableMutex.Lock()
	tableBuilt = false
	tableMutex.Unlock()
}

func scanRows(rows *sql.Rows) ([]GameRow, error) {
	defer rows.Close()

	var out []GameRow
	for rows.Next() {
		var r GameRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Genre, &r.Owners, &r.Players, &r.AvgPlaytime); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// queryFiltered returns exactly the rows whose genre is in the set and whose
// average playtime meets the threshold. A nil genre set means no restriction;
// a non-nil empty set matches nothing (every genre deselected).
func queryFiltered(genres []string, minPlaytime int) ([]GameRow, error) {
	if genres != nil && len(genres) == 0 {
		return nil, nil
	}

	query := `SELECT appid, name, genre, owners, players, avg_playtime FROM games WHERE avg_playtime >= ?`
	args := []interface{}{minPlaytime}

	if len(genres) > 0 {
		query += ` AND genre IN (?` + strings.Repeat(",?", len(genres)-1) + `)`
		for _, g := range genres {
			args = append(args, g)
		}
	}
	query += ` ORDER BY players DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

var metricColumns = map[string]string{
	"owners":       "owners",
	"players":      "players",
	"avg_playtime": "avg_playtime",
}

func queryTopN(metric string, n int) ([]GameRow, error) {
	col, ok := metricColumns[metric]
	if !ok {
		col = "players"
	}
	rows, err := db.Query(fmt.Sprintf(`
		SELECT appid, name, genre, owners, players, avg_playtime
		FROM games ORDER BY %s DESC LIMIT ?`, col), n)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

func queryGame(appid int) (GameRow, error) {
	var r GameRow
	err := db.QueryRow(`
		SELECT appid, name, genre, owners, players, avg_playtime
		FROM games WHERE appid = ?`, appid).
		Scan(&r.ID, &r.Name, &r.Genre, &r.Owners, &r.Players, &r.AvgPlaytime)
	return r, err
}

// GenreSummary is one genre rollup row: summed owners and players, mean playtime
type GenreSummary struct {
	Genre       string  `json:"genre"`
	Owners      int     `json:"owners"`
	Players     int     `json:"players"`
	AvgPlaytime float64 `json:"avg_playtime"`
}

func queryGenreSummary() ([]GenreSummary, error) {
	rows, err := db.Query(`
		SELECT genre, SUM(owners), SUM(players), AVG(avg_playtime)
		FROM games GROUP BY genre ORDER BY SUM(players) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GenreSummary
	for rows.Next() {
		var s GenreSummary
		if err := rows.Scan(&s.Genre, &s.Owners, &s.Players, &s.AvgPlaytime); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func queryGenres() ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT genre FROM games ORDER BY genre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// queryMaxPlaytime bounds the minimum-playtime slider
func queryMaxPlaytime() (int, error) {
	var max sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(avg_playtime) FROM games`).Scan(&max); err != nil {
		return 0, err
	}
	return int(max.Int64), nil
}

package main

import (
	"database/sql"
	"errors"
	"reflect"
	"testing"
)

func setupAnalysisTable(t *testing.T, rows []GameRow) {
	t.Helper()
	initDB()
	t.Cleanup(func() { db.Close() })
	if err := rebuildTable(rows); err != nil {
		t.Fatalf("rebuildTable() error = %v", err)
	}
}

func fixtureRows() []GameRow {
	return []GameRow{
		{ID: 10, Name: "Dwarf Sim", Genre: "Action", Owners: 100, Players: 50, AvgPlaytime: 300},
		{ID: 20, Name: "Puzzler", Genre: "Casual", Owners: 200, Players: 10, AvgPlaytime: 30},
		{ID: 30, Name: "Shooty", Genre: "Action", Owners: 50, Players: 80, AvgPlaytime: 120},
		{ID: 40, Name: "Farmhand", Genre: "Simulation", Owners: 400, Players: 5, AvgPlaytime: 900},
	}
}

func rowIDs(rows []GameRow) []int {
	ids := make([]int, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestQueryFiltered(t *testing.T) {
	setupAnalysisTable(t, fixtureRows())

	t.Run("genre set and playtime threshold", func(t *testing.T) {
		rows, err := queryFiltered([]string{"Action", "Simulation"}, 150)
		if err != nil {
			t.Fatalf("queryFiltered() error = %v", err)
		}
		// Shooty is Action but under the threshold; Puzzler is over neither
		if got, want := rowIDs(rows), []int{10, 40}; !reflect.DeepEqual(got, want) {
			t.Errorf("filtered ids = %v, want %v", got, want)
		}
	})

	t.Run("no genre restriction", func(t *testing.T) {
		rows, err := queryFiltered(nil, 0)
		if err != nil {
			t.Fatalf("queryFiltered() error = %v", err)
		}
		// Everything, ranked by players
		if got, want := rowIDs(rows), []int{30, 10, 20, 40}; !reflect.DeepEqual(got, want) {
			t.Errorf("ids = %v, want %v", got, want)
		}
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		rows, err := queryFiltered(nil, 900)
		if err != nil {
			t.Fatalf("queryFiltered() error = %v", err)
		}
		if got, want := rowIDs(rows), []int{40}; !reflect.DeepEqual(got, want) {
			t.Errorf("ids = %v, want %v", got, want)
		}
	})

	t.Run("deliberate empty selection", func(t *testing.T) {
		// Every genre deselected in the UI: zero rows, not the full table
		rows, err := queryFiltered([]string{}, 0)
		if err != nil {
			t.Fatalf("queryFiltered() error = %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("empty genre set returned %d rows, want 0", len(rows))
		}
	})

	t.Run("no matching genre", func(t *testing.T) {
		rows, err := queryFiltered([]string{"Sports"}, 0)
		if err != nil {
			t.Fatalf("queryFiltered() error = %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("len(rows) = %d, want 0", len(rows))
		}
	})
}

func TestQueryTopN(t *testing.T) {
	setupAnalysisTable(t, fixtureRows())

	rows, err := queryTopN("owners", 2)
	if err != nil {
		t.Fatalf("queryTopN() error = %v", err)
	}
	if got, want := rowIDs(rows), []int{40, 20}; !reflect.DeepEqual(got, want) {
		t.Errorf("top by owners = %v, want %v", got, want)
	}

	// Unknown metric falls back to players
	rows, err = queryTopN("something-else", 1)
	if err != nil {
		t.Fatalf("queryTopN() error = %v", err)
	}
	if got, want := rowIDs(rows), []int{30}; !reflect.DeepEqual(got, want) {
		t.Errorf("top by fallback metric = %v, want %v", got, want)
	}
}

func TestQueryGenreSummary(t *testing.T) {
	setupAnalysisTable(t, fixtureRows())

	sums, err := queryGenreSummary()
	if err != nil {
		t.Fatalf("queryGenreSummary() error = %v", err)
	}
	if len(sums) != 3 {
		t.Fatalf("len(sums) = %d, want 3", len(sums))
	}

	// Ordered by summed players: Action (130), Casual (10), Simulation (5)
	action := sums[0]
	if action.Genre != "Action" {
		t.Fatalf("first genre = %q, want Action", action.Genre)
	}
	if action.Owners != 150 || action.Players != 130 {
		t.Errorf("Action sums = %d/%d, want 150/130", action.Owners, action.Players)
	}
	if action.AvgPlaytime != 210 {
		t.Errorf("Action mean playtime = %v, want 210", action.AvgPlaytime)
	}
	if sums[1].Genre != "Casual" || sums[2].Genre != "Simulation" {
		t.Errorf("order = %q,%q, want Casual,Simulation", sums[1].Genre, sums[2].Genre)
	}
}

func TestQueryGame(t *testing.T) {
	setupAnalysisTable(t, fixtureRows())

	row, err := queryGame(20)
	if err != nil {
		t.Fatalf("queryGame(20) error = %v", err)
	}
	if row.Name != "Puzzler" || row.Genre != "Casual" {
		t.Errorf("row = %+v", row)
	}

	if _, err := queryGame(999); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("queryGame(999) error = %v, want sql.ErrNoRows", err)
	}
}

func TestQueryGenresAndMaxPlaytime(t *testing.T) {
	setupAnalysisTable(t, fixtureRows())

	genres, err := queryGenres()
	if err != nil {
		t.Fatalf("queryGenres() error = %v", err)
	}
	if got, want := genres, []string{"Action", "Casual", "Simulation"}; !reflect.DeepEqual(got, want) {
		t.Errorf("genres = %v, want %v", got, want)
	}

	max, err := queryMaxPlaytime()
	if err != nil {
		t.Fatalf("queryMaxPlaytime() error = %v", err)
	}
	if max != 900 {
		t.Errorf("max playtime = %d, want 900", max)
	}
}

func TestMaxPlaytimeEmptyTable(t *testing.T) {
	setupAnalysisTable(t, nil)

	max, err := queryMaxPlaytime()
	if err != nil {
		t.Fatalf("queryMaxPlaytime() error = %v", err)
	}
	if max != 0 {
		t.Errorf("max playtime = %d, want 0", max)
	}
}

func TestRebuildReplacesTable(t *testing.T) {
	setupAnalysisTable(t, fixtureRows())

	if err := rebuildTable([]GameRow{{ID: 1, Name: "Solo", Genre: "Indie"}}); err != nil {
		t.Fatalf("rebuildTable() error = %v", err)
	}
	rows, err := queryFiltered(nil, 0)
	if err != nil {
		t.Fatalf("queryFiltered() error = %v", err)
	}
	if len(rows) != 1 || rows[0].ID != 1 {
		t.Errorf("rows after rebuild = %v, want just id 1", rowIDs(rows))
	}
}

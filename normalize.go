package main

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// GameRow is the flat per-game record everything downstream works with.
// Counts are always non-negative; Genre and Name are never empty.
type GameRow struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Genre       string `json:"genre"`
	Owners      int    `json:"owners"`
	Players     int    `json:"players"`      // players in the last two weeks
	AvgPlaytime int    `json:"avg_playtime"` // minutes
}

const unknownLabel = "unknown"

var digitRuns = regexp.MustCompile(`\d+`)

// parseOwners turns SteamSpy's owners range string ("10,000,000 .. 20,000,000")
// into a single count: midpoint of the first two numbers, the single number if
// only one is present, 0 otherwise. Commas are stripped first so grouped digits
// read as one run.
func parseOwners(s string) int {
	nums := digitRuns.FindAllString(strings.ReplaceAll(s, ",", ""), -1)
	if len(nums) >= 2 {
		low, errL := strconv.Atoi(nums[0])
		high, errH := strconv.Atoi(nums[1])
		if errL != nil || errH != nil {
			return 0
		}
		return (low + high) / 2
	}
	if len(nums) == 1 {
		if n, err := strconv.Atoi(nums[0]); err == nil {
			return n
		}
	}
	return 0
}

// toCount coerces SteamSpy's loosely-typed numeric fields (float64 from JSON,
// sometimes a quoted string) into a non-negative int, 0 on anything else.
func toCount(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, false
		}
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || parsed < 0 {
			return 0, false
		}
		return parsed, true
	case json.Number:
		parsed, err := n.Int64()
		if err != nil || parsed < 0 {
			return 0, false
		}
		return int(parsed), true
	case int:
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// recentPlayers prefers players_2weeks and falls back to average_2weeks
func recentPlayers(d AppDetails) int {
	if n, ok := toCount(d.Players2Weeks); ok {
		return n
	}
	if n, ok := toCount(d.Average2Weeks); ok {
		return n
	}
	return 0
}

func avgPlaytime(d AppDetails) int {
	n, _ := toCount(d.AverageForever)
	return n
}

// firstGenre keeps the first entry of a comma-separated genre list
func firstGenre(s string) string {
	g := strings.TrimSpace(strings.SplitN(s, ",", 2)[0])
	if g == "" {
		return unknownLabel
	}
	return g
}

func normalizeRow(appid int, summary GameSummary, details AppDetails) GameRow {
	name := summary.Name
	if name == "" {
		name = unknownLabel
	}
	return GameRow{
		ID:          appid,
		Name:        name,
		Genre:       firstGenre(details.Genre),
		Owners:      parseOwners(summary.Owners),
		Players:     recentPlayers(details),
		AvgPlaytime: avgPlaytime(details),
	}
}

// buildRows fetches the top list and walks it sequentially, one blocking
// detail request per game. Malformed fields default, rows are never dropped.
// progress (optional) is called once per completed game.
func buildRows(progress func(done, total int)) ([]GameRow, error) {
	top, err := getTopGamesCached()
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		return nil, errNoData
	}

	// Walk in appid order so reruns produce the same table
	ids := make([]int, 0, len(top))
	byID := make(map[int]GameSummary, len(top))
	for key, summary := range top {
		id := summary.AppID
		if id == 0 {
			// Older SteamSpy payloads omit appid in the value; the key has it
			parsed, err := strconv.Atoi(key)
			if err != nil {
				continue
			}
			id = parsed
		}
		// Two keys resolving to the same appid would double-insert downstream
		if _, seen := byID[id]; seen {
			continue
		}
		ids = append(ids, id)
		byID[id] = summary
	}
	sort.Ints(ids)

	rows := make([]GameRow, 0, len(ids))
	for i, id := range ids {
		details, err := getAppDetailsCached(id)
		if err != nil {
			// Degrade to defaults, keep the row
			details = AppDetails{}
		}
		rows = append(rows, normalizeRow(id, byID[id], details))
		if progress != nil {
			progress(i+1, len(ids))
		}
	}
	return rows, nil
}

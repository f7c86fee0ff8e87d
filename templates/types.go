package templates

type GameRow struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Genre       string `json:"genre"`
	Owners      int    `json:"owners"`
	Players     int    `json:"players"`
	AvgPlaytime int    `json:"avg_playtime"`
}

type DashboardData struct {
	Genres      []string
	MaxPlaytime int
	TopGames    []GameRow
}

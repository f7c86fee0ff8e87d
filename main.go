package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"steam-pulse/templates"

	"github.com/a-h/templ"
	"github.com/cheggaaa/pb/v3"
	"github.com/joho/godotenv"

	_ "github.com/glebarez/go-sqlite"
)

var errNoData = errors.New("no data returned from SteamSpy")

// How long fetched SteamSpy responses (and the table built from them) stay fresh
var cacheTTL = time.Hour

func loadConfig() {
	godotenv.Load()

	if base := os.Getenv("STEAMSPY_API"); base != "" {
		spyBase = base
	}
	if mins := os.Getenv("CACHE_TTL_MINUTES"); mins != "" {
		if n, err := strconv.Atoi(mins); err == nil && n > 0 {
			cacheTTL = time.Duration(n) * time.Minute
		}
	}
}

func main() {
	csvPath := flag.String("csv", "", "Fetch, write the normalized table to this CSV file and exit")
	flag.Parse()

	loadConfig()
	initDB()

	if *csvPath != "" {
		if err := exportCSVFile(*csvPath); err != nil {
			fmt.Printf("❌ Export failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Route for the dashboard
	http.HandleFunc("/", dashboardHandler)

	// Data endpoints the dashboard controls fetch from
	http.HandleFunc("/api/table", tableHandler)
	http.HandleFunc("/api/top", topHandler)
	http.HandleFunc("/api/genres", genresHandler)
	http.HandleFunc("/api/game", gameHandler)
	http.HandleFunc("/api/refresh", refreshHandler)

	http.HandleFunc("/export/csv", exportHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("🎮 Steam Pulse is running on http://localhost:%s\n", port)
	http.ListenAndServe(":"+port, nil)
}

// filterParams reads the shared genre/playtime filter query parameters.
// A missing genres parameter means no genre restriction (nil); a present but
// empty one is a deliberate empty selection and matches nothing.
func filterParams(r *http.Request) ([]string, int) {
	var genres []string
	if _, present := r.URL.Query()["genres"]; present {
		genres = []string{}
		for _, g := range strings.Split(r.URL.Query().Get("genres"), ",") {
			if g = strings.TrimSpace(g); g != "" {
				genres = append(genres, g)
			}
		}
	}
	minPlaytime, _ := strconv.Atoi(r.URL.Query().Get("min_playtime"))
	if minPlaytime < 0 {
		minPlaytime = 0
	}
	return genres, minPlaytime
}

func dashboardHandler(w http.ResponseWriter, r *http.Request) {
	if err := ensureTable(); err != nil {
		fmt.Printf("❌ Table build failed: %v\n", err)
		templ.Handler(
			templates.ErrorPage("Could not load data from SteamSpy. Try again later."),
			templ.WithStatus(http.StatusServiceUnavailable),
		).ServeHTTP(w, r)
		return
	}

	genres, _ := queryGenres()
	maxPlaytime, _ := queryMaxPlaytime()
	top, _ := queryTopN("players", 10)

	data := templates.DashboardData{
		Genres:      genres,
		MaxPlaytime: maxPlaytime,
		TopGames:    toTemplateRows(top),
	}
	templ.Handler(templates.Dashboard(data)).ServeHTTP(w, r)
}

func toTemplateRows(rows []GameRow) []templates.GameRow {
	out := make([]templates.GameRow, len(rows))
	for i, r := range rows {
		out[i] = templates.GameRow{
			ID:          r.ID,
			Name:        r.Name,
			Genre:       r.Genre,
			Owners:      r.Owners,
			Players:     r.Players,
			AvgPlaytime: r.AvgPlaytime,
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func tableHandler(w http.ResponseWriter, r *http.Request) {
	if err := ensureTable(); err != nil {
		http.Error(w, "Could not load data from SteamSpy", http.StatusServiceUnavailable)
		return
	}
	genres, minPlaytime := filterParams(r)
	rows, err := queryFiltered(genres, minPlaytime)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []GameRow{}
	}
	writeJSON(w, rows)
}

func topHandler(w http.ResponseWriter, r *http.Request) {
	if err := ensureTable(); err != nil {
		http.Error(w, "Could not load data from SteamSpy", http.StatusServiceUnavailable)
		return
	}

	metric := r.URL.Query().Get("metric")
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	if n == 0 {
		n = 10
	}
	// Same bounds as the top-N slider
	if n < 5 {
		n = 5
	}
	if n > 50 {
		n = 50
	}

	rows, err := queryTopN(metric, n)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []GameRow{}
	}
	writeJSON(w, rows)
}

func genresHandler(w http.ResponseWriter, r *http.Request) {
	if err := ensureTable(); err != nil {
		http.Error(w, "Could not load data from SteamSpy", http.StatusServiceUnavailable)
		return
	}
	summary, err := queryGenreSummary()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if summary == nil {
		summary = []GenreSummary{}
	}
	writeJSON(w, summary)
}

func gameHandler(w http.ResponseWriter, r *http.Request) {
	if err := ensureTable(); err != nil {
		http.Error(w, "Could not load data from SteamSpy", http.StatusServiceUnavailable)
		return
	}
	appid, err := strconv.Atoi(r.URL.Query().Get("appid"))
	if err != nil {
		http.Error(w, "Missing or bad appid", http.StatusBadRequest)
		return
	}
	row, err := queryGame(appid)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, row)
}

func refreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST allowed", http.StatusMethodNotAllowed)
		return
	}
	fmt.Println("🔄 Full refresh requested")
	forceRefresh()
	if err := ensureTable(); err != nil {
		http.Error(w, "Could not load data from SteamSpy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func exportHandler(w http.ResponseWriter, r *http.Request) {
	if err := ensureTable(); err != nil {
		http.Error(w, "Could not load data from SteamSpy", http.StatusServiceUnavailable)
		return
	}
	genres, minPlaytime := filterParams(r)
	rows, err := queryFiltered(genres, minPlaytime)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="steamspy_filtered.csv"`)
	if err := writeCSV(w, rows); err != nil {
		fmt.Printf("❌ CSV write failed: %v\n", err)
	}
}

// exportCSVFile is the -csv mode: sequential fetch loop with a terminal
// progress bar, then one CSV on disk.
func exportCSVFile(path string) error {
	fmt.Println("🎮 Fetching top games from SteamSpy...")

	var bar *pb.ProgressBar
	rows, err := buildRows(func(done, total int) {
		if bar == nil {
			bar = pb.StartNew(total)
			bar.SetRefreshRate(time.Second)
			bar.SetWriter(os.Stdout)
		}
		bar.Increment()
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeCSV(f, rows); err != nil {
		return err
	}
	fmt.Printf("📥 Wrote %d games to %s\n", len(rows), path)
	return nil
}

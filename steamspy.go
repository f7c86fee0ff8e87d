package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const SPY_BASE = "https://steamspy.com/api.php"

// Overridable via STEAMSPY_API (and pointed at httptest servers in tests)
var spyBase = SPY_BASE

var spyClient = &http.Client{Timeout: 15 * time.Second}

// GameSummary is one entry of the top100in2weeks response, which is an
// object keyed by appid string
type GameSummary struct {
	AppID  int    `json:"appid"`
	Name   string `json:"name"`
	Owners string `json:"owners"`
}

// AppDetails is the appdetails response. SteamSpy is loose with types here
// (numbers sometimes arrive as strings), so the player/playtime fields stay
// untyped and the normalizer sorts them out.
type AppDetails struct {
	AppID          int         `json:"appid"`
	Name           string      `json:"name"`
	Genre          string      `json:"genre"`
	Players2Weeks  interface{} `json:"players_2weeks"`
	Average2Weeks  interface{} `json:"average_2weeks"`
	AverageForever interface{} `json:"average_forever"`
}

// Cache variables
var (
	topCache     map[string]GameSummary
	topFetched   bool
	topTimestamp time.Time
	topMutex     sync.Mutex
)

var (
	detailCache     = make(map[int]AppDetails)
	detailTimestamp = make(map[int]time.Time)
	detailMutex     sync.Mutex
)

func getTopGamesCached() (map[string]GameSummary, error) {
	topMutex.Lock()
	defer topMutex.Unlock()

	// Cache check (SteamSpy refreshes these rankings slowly, 1 hour is plenty)
	if topFetched && time.Since(topTimestamp) < cacheTTL {
		return topCache, nil
	}

	games := make(map[string]GameSummary)

	resp, err := spyClient.Get(fmt.Sprintf("%s?request=top100in2weeks", spyBase))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Non-200 is treated as empty data, not an error
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
			return nil, err
		}
	}

	topCache = games
	topFetched = true
	topTimestamp = time.Now()
	return games, nil
}

func getAppDetailsCached(appid int) (AppDetails, error) {
	detailMutex.Lock()
	defer detailMutex.Unlock()

	if d, ok := detailCache[appid]; ok && time.Since(detailTimestamp[appid]) < cacheTTL {
		return d, nil
	}

	var details AppDetails

	resp, err := spyClient.Get(fmt.Sprintf("%s?request=appdetails&appid=%d", spyBase, appid))
	if err != nil {
		return details, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
			return details, err
		}
	}

	detailCache[appid] = details
	detailTimestamp[appid] = time.Now()
	return details, nil
}

// resetCaches drops everything so the next read hits SteamSpy again
func resetCaches() {
	topMutex.Lock()
	topCache = nil
	topFetched = false
	topMutex.Unlock()

	detailMutex.Lock()
	detailCache = make(map[int]AppDetails)
	detailTimestamp = make(map[int]time.Time)
	detailMutex.Unlock()
}

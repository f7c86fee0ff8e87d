package main

import (
	"encoding/csv"
	"io"
	"strconv"
)

// BOM so Excel opens the download as UTF-8
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{"id", "name", "genre", "owners", "players", "avg_playtime_minutes"}

func writeCSV(w io.Writer, rows []GameRow) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.ID),
			r.Name,
			r.Genre,
			strconv.Itoa(r.Owners),
			strconv.Itoa(r.Players),
			strconv.Itoa(r.AvgPlaytime),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

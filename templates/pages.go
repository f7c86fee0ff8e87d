package templates

import (
	"bytes"
	"context"
	tpl "html/template"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
)

// Pages are plain components built with a buffer, Tailwind via CDN for styling
// and Plotly via CDN for the charts. Dynamic values go through
// html/template escaping.

func page(title string, body func(buf *bytes.Buffer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		buf.WriteString(`<!doctype html><html lang="en"><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"><title>`)
		buf.WriteString(tpl.HTMLEscapeString(title))
		buf.WriteString(`</title><script src="https://cdn.tailwindcss.com"></script><script src="https://cdn.plot.ly/plotly-2.32.0.min.js"></script></head><body class="bg-slate-100 font-sans text-slate-800">`)
		body(&buf)
		buf.WriteString(`</body></html>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func ErrorPage(message string) templ.Component {
	return page("Steam Pulse", func(buf *bytes.Buffer) {
		buf.WriteString(`<div class="min-h-screen flex items-center justify-center"><div class="max-w-lg w-full bg-white rounded-2xl p-8 shadow-xl text-center"><h1 class="text-2xl font-black mb-2">🎮 Steam Pulse</h1><p class="text-red-600 font-semibold">`)
		buf.WriteString(tpl.HTMLEscapeString(message))
		buf.WriteString(`</p></div></div>`)
	})
}

func Dashboard(data DashboardData) templ.Component {
	return page("Steam Pulse — SteamSpy genre analytics", func(buf *bytes.Buffer) {
		buf.WriteString(`<div class="max-w-6xl mx-auto p-6">`)
		buf.WriteString(`<h1 class="text-3xl font-black text-center text-blue-600 mb-1">Steam Genre Analytics</h1>`)
		buf.WriteString(`<p class="text-center text-slate-500 mb-6">Owners, recent players and average playtime for SteamSpy's top games of the last two weeks</p>`)

		// Controls
		buf.WriteString(`<div class="bg-white rounded-2xl p-4 shadow mb-6 grid grid-cols-1 md:grid-cols-2 gap-4">`)

		buf.WriteString(`<div><div class="text-sm font-semibold mb-1">Metric</div>`)
		writeMetricRadio(buf, "players", "Recent players", true)
		writeMetricRadio(buf, "owners", "Owners", false)
		writeMetricRadio(buf, "avg_playtime", "Average playtime", false)
		buf.WriteString(`</div>`)

		buf.WriteString(`<div><label class="text-sm font-semibold" for="topN">Top N games: <span id="topNVal">10</span></label>`)
		buf.WriteString(`<input id="topN" type="range" min="5" max="50" value="10" class="w-full"></div>`)

		buf.WriteString(`<div><div class="text-sm font-semibold mb-1">Genres</div><div id="genreBox" class="flex flex-wrap gap-2">`)
		for _, g := range data.Genres {
			esc := tpl.HTMLEscapeString(g)
			buf.WriteString(`<label class="text-sm bg-slate-100 rounded px-2 py-1"><input type="checkbox" class="genre-cb" value="`)
			buf.WriteString(esc)
			buf.WriteString(`" checked> `)
			buf.WriteString(esc)
			buf.WriteString(`</label>`)
		}
		buf.WriteString(`</div></div>`)

		buf.WriteString(`<div><label class="text-sm font-semibold" for="minPlaytime">Minimum average playtime (min): <span id="minPlaytimeVal">0</span></label>`)
		buf.WriteString(`<input id="minPlaytime" type="range" min="0" max="`)
		buf.WriteString(strconv.Itoa(data.MaxPlaytime))
		buf.WriteString(`" value="0" class="w-full"></div>`)

		buf.WriteString(`<div class="md:col-span-2 flex gap-3">`)
		buf.WriteString(`<button id="refreshBtn" class="bg-blue-600 text-white font-bold py-2 px-5 rounded-xl">🔄 Refresh data</button>`)
		buf.WriteString(`<button id="csvBtn" class="bg-slate-700 text-white font-bold py-2 px-5 rounded-xl">📥 Download CSV</button>`)
		buf.WriteString(`</div></div>`)

		// Charts
		buf.WriteString(`<h2 class="text-xl font-bold mb-2">🎮 Top games</h2>`)
		buf.WriteString(`<div id="topChart" class="bg-white rounded-2xl shadow mb-6" style="height:600px"></div>`)
		buf.WriteString(`<h2 class="text-xl font-bold mb-2">📊 Genre summary</h2>`)
		buf.WriteString(`<div id="genreChart" class="bg-white rounded-2xl shadow mb-6" style="height:500px"></div>`)

		// Filtered table, server-rendered once, redrawn by the script below
		buf.WriteString(`<h2 class="text-xl font-bold mb-2">🔍 Filtered games</h2>`)
		buf.WriteString(`<div id="tableBox" class="bg-white rounded-2xl shadow mb-6 overflow-x-auto">`)
		writeRowsTable(buf, data.TopGames)
		buf.WriteString(`</div>`)

		// Detail panel
		buf.WriteString(`<h2 class="text-xl font-bold mb-2">📘 Game details</h2>`)
		buf.WriteString(`<div class="bg-white rounded-2xl p-4 shadow mb-6"><select id="gameSelect" class="w-full p-2 border rounded-md mb-3"></select><div id="gameDetail" class="text-sm"></div></div>`)

		buf.WriteString(`</div>`)
		buf.WriteString(dashboardScript)
	})
}

func writeMetricRadio(buf *bytes.Buffer, value, label string, checked bool) {
	buf.WriteString(`<label class="block text-sm"><input type="radio" name="metric" value="`)
	buf.WriteString(value)
	buf.WriteString(`"`)
	if checked {
		buf.WriteString(` checked`)
	}
	buf.WriteString(`> `)
	buf.WriteString(tpl.HTMLEscapeString(label))
	buf.WriteString(`</label>`)
}

func writeRowsTable(buf *bytes.Buffer, rows []GameRow) {
	buf.WriteString(`<table class="w-full text-sm"><thead><tr class="text-left border-b">`)
	for _, h := range []string{"ID", "Name", "Genre", "Owners", "Players (2w)", "Avg playtime (min)"} {
		buf.WriteString(`<th class="p-2">`)
		buf.WriteString(h)
		buf.WriteString(`</th>`)
	}
	buf.WriteString(`</tr></thead><tbody>`)
	for _, r := range rows {
		buf.WriteString(`<tr class="border-b"><td class="p-2">`)
		buf.WriteString(strconv.Itoa(r.ID))
		buf.WriteString(`</td><td class="p-2">`)
		buf.WriteString(tpl.HTMLEscapeString(r.Name))
		buf.WriteString(`</td><td class="p-2">`)
		buf.WriteString(tpl.HTMLEscapeString(r.Genre))
		buf.WriteString(`</td><td class="p-2">`)
		buf.WriteString(humanize.Comma(int64(r.Owners)))
		buf.WriteString(`</td><td class="p-2">`)
		buf.WriteString(humanize.Comma(int64(r.Players)))
		buf.WriteString(`</td><td class="p-2">`)
		buf.WriteString(strconv.Itoa(r.AvgPlaytime))
		buf.WriteString(`</td></tr>`)
	}
	buf.WriteString(`</tbody></table>`)
}

// All control changes funnel into filter/top-N query parameters; the page
// itself holds no state beyond the widgets.
const dashboardScript = `<script>
function metric(){ return document.querySelector('input[name="metric"]:checked').value; }
function topN(){ return document.getElementById('topN').value; }
function minPlaytime(){ return document.getElementById('minPlaytime').value; }
function selectedGenres(){
  var out = [];
  document.querySelectorAll('.genre-cb:checked').forEach(function(cb){ out.push(cb.value); });
  return out;
}
function filterQuery(){
  return 'genres=' + encodeURIComponent(selectedGenres().join(',')) + '&min_playtime=' + minPlaytime();
}
function byGenre(rows, key){
  var traces = {};
  rows.forEach(function(r){
    if (!traces[r.genre]) traces[r.genre] = {name: r.genre, type: 'bar', x: [], y: []};
    traces[r.genre].x.push(r.name);
    traces[r.genre].y.push(r[key]);
  });
  return Object.values(traces);
}
async function loadTop(){
  var resp = await fetch('/api/top?metric=' + metric() + '&n=' + topN());
  if (!resp.ok) return;
  var rows = await resp.json();
  Plotly.newPlot('topChart', byGenre(rows, metric()), {xaxis: {tickangle: -45}, margin: {b: 140}}, {responsive: true});
}
async function loadGenreSummary(){
  var resp = await fetch('/api/genres');
  if (!resp.ok) return;
  var sums = await resp.json();
  var trace = {type: 'bar', x: sums.map(function(s){ return s.genre; }), y: sums.map(function(s){ return s.players; })};
  Plotly.newPlot('genreChart', [trace], {yaxis: {title: 'Players (last 2 weeks)'}}, {responsive: true});
}
async function loadTable(){
  var resp = await fetch('/api/table?' + filterQuery());
  if (!resp.ok) return;
  var rows = await resp.json();
  var html = '<table class="w-full text-sm"><thead><tr class="text-left border-b">';
  ['ID','Name','Genre','Owners','Players (2w)','Avg playtime (min)'].forEach(function(h){ html += '<th class="p-2">' + h + '</th>'; });
  html += '</tr></thead><tbody>';
  var sel = document.getElementById('gameSelect');
  sel.innerHTML = '';
  rows.forEach(function(r){
    html += '<tr class="border-b"><td class="p-2">' + r.id + '</td><td class="p-2">' + esc(r.name) +
      '</td><td class="p-2">' + esc(r.genre) + '</td><td class="p-2">' + r.owners.toLocaleString() +
      '</td><td class="p-2">' + r.players.toLocaleString() + '</td><td class="p-2">' + r.avg_playtime + '</td></tr>';
    var opt = document.createElement('option');
    opt.value = r.id;
    opt.textContent = r.name;
    sel.appendChild(opt);
  });
  html += '</tbody></table>';
  document.getElementById('tableBox').innerHTML = html;
  if (rows.length > 0) loadGame(rows[0].id);
}
async function loadGame(id){
  var resp = await fetch('/api/game?appid=' + id);
  if (!resp.ok) return;
  var r = await resp.json();
  document.getElementById('gameDetail').innerHTML =
    '<p><b>Genre</b>: ' + esc(r.genre) + '</p>' +
    '<p><b>Owners</b>: ' + r.owners.toLocaleString() + '</p>' +
    '<p><b>Players (last 2 weeks)</b>: ' + r.players.toLocaleString() + '</p>' +
    '<p><b>Average playtime</b>: ' + r.avg_playtime + ' min</p>';
}
function esc(s){
  var d = document.createElement('div');
  d.textContent = s;
  return d.innerHTML;
}
function redraw(){ loadTop(); loadGenreSummary(); loadTable(); }
document.querySelectorAll('input[name="metric"]').forEach(function(rb){ rb.addEventListener('change', loadTop); });
document.getElementById('topN').addEventListener('input', function(){
  document.getElementById('topNVal').innerText = topN();
  loadTop();
});
document.getElementById('minPlaytime').addEventListener('input', function(){
  document.getElementById('minPlaytimeVal').innerText = minPlaytime();
  loadTable();
});
document.getElementById('genreBox').addEventListener('change', loadTable);
document.getElementById('gameSelect').addEventListener('change', function(){ loadGame(this.value); });
document.getElementById('csvBtn').addEventListener('click', function(){
  window.location = '/export/csv?' + filterQuery();
});
document.getElementById('refreshBtn').addEventListener('click', async function(){
  await fetch('/api/refresh', {method: 'POST'});
  redraw();
});
redraw();
</script>`

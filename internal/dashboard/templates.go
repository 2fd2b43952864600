package dashboard

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/reqwatch/reqwatch/api"
)

var funcMap = template.FuncMap{
	"statusColor": statusColor,
	"statusText":  statusText,
	"msec":        msecText,
	"userName": func(p *api.Principal) string {
		if p == nil {
			return "-"
		}
		return p.DisplayName()
	},
}

var pageTmpls = map[string]*template.Template{
	"logs":   template.Must(template.New("logs").Funcs(funcMap).Parse(navHTML + logsHTML)),
	"recent": template.Must(template.New("recent").Funcs(funcMap).Parse(navHTML + recentHTML)),
}

func renderPage(w http.ResponseWriter, name string, data map[string]any) {
	tmpl, ok := pageTmpls[name]
	if !ok {
		http.Error(w, "unknown page: "+name, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// renderFragment executes a named block of a page template, for HTMX
// partial updates.
func renderFragment(w http.ResponseWriter, page, block string, data map[string]any) {
	tmpl, ok := pageTmpls[page]
	if !ok {
		http.Error(w, "unknown page: "+page, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, block, data); err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

const navHTML = `{{define "nav"}}
<nav class="bg-gray-900 border-b border-gray-700 px-6 py-4">
    <div class="flex items-center justify-between max-w-7xl mx-auto">
        <div class="flex items-center space-x-2">
            <span class="text-xl font-bold text-white">reqwatch</span>
            <span class="text-xs bg-gray-700 text-gray-300 px-2 py-1 rounded">Request Audit</span>
        </div>
        <div class="flex space-x-4">
            <a href="/logs/" class="px-3 py-2 rounded hover:bg-gray-800 {{if eq .Page "logs"}}bg-gray-800 text-white{{else}}text-gray-400{{end}}">Requests</a>
            <a href="/logs/recent/" class="px-3 py-2 rounded hover:bg-gray-800 {{if eq .Page "recent"}}bg-gray-800 text-white{{else}}text-gray-400{{end}}">Recent</a>
            <a href="/logs/stats/" class="px-3 py-2 rounded hover:bg-gray-800 text-gray-400">Stats JSON</a>
        </div>
    </div>
</nav>
{{end}}`

const headHTML = `<!DOCTYPE html>
<html lang="en" class="dark">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>reqwatch</title>
    <script src="https://cdn.tailwindcss.com"></script>
    <script src="https://unpkg.com/htmx.org@2.0.4"></script>
    <script src="https://unpkg.com/htmx-ext-sse@2.2.2/sse.js"></script>
    <style>body { background-color: #0f172a; color: #e2e8f0; }</style>
</head>
<body class="min-h-screen">
{{template "nav" .}}
<main class="max-w-7xl mx-auto px-6 py-8">`

const footHTML = `</main>
</body>
</html>`

const logTableHTML = `{{define "logs_table"}}
<div class="bg-gray-900 border border-gray-700 rounded-lg overflow-hidden" id="logs-table">
    <table class="w-full text-sm text-left">
        <thead class="bg-gray-800 text-gray-400 uppercase text-xs">
            <tr>
                <th class="px-4 py-3">Time</th>
                <th class="px-4 py-3">Method</th>
                <th class="px-4 py-3">Path</th>
                <th class="px-4 py-3">User</th>
                <th class="px-4 py-3">Status</th>
                <th class="px-4 py-3">Duration</th>
                <th class="px-4 py-3">Client</th>
            </tr>
        </thead>
        <tbody>
            {{range .Logs.Records}}
            <tr class="border-b border-gray-700 hover:bg-gray-800">
                <td class="px-4 py-2 text-gray-400 text-xs">{{.Timestamp.Format "2006-01-02 15:04:05"}}</td>
                <td class="px-4 py-2 font-mono text-xs">{{.Method}}</td>
                <td class="px-4 py-2 font-mono text-sm">{{.Path}}</td>
                <td class="px-4 py-2">{{userName .User}}</td>
                <td class="px-4 py-2"><span class="px-2 py-1 rounded text-xs font-bold {{statusColor .StatusClass}}">{{statusText .ResponseStatus}}</span></td>
                <td class="px-4 py-2 text-gray-400 text-xs">{{msec .ResponseTimeMs}}</td>
                <td class="px-4 py-2 text-gray-400 text-xs">{{.RemoteIP}}</td>
            </tr>
            {{else}}
            <tr><td colspan="7" class="px-4 py-8 text-center text-gray-500">No requests logged yet</td></tr>
            {{end}}
        </tbody>
    </table>
    <div class="flex justify-between items-center px-4 py-3 bg-gray-800 text-sm text-gray-400">
        <span>{{.Logs.TotalCount}} requests, page {{.Logs.Page}} of {{.Logs.TotalPages}}</span>
        <div class="space-x-2">
            {{if .Logs.HasPrev}}<a class="px-3 py-1 rounded bg-gray-700 hover:bg-gray-600 text-white" href="/logs/?{{.BaseQuery}}&page={{.Logs.PrevPage}}">Prev</a>{{end}}
            {{if .Logs.HasNext}}<a class="px-3 py-1 rounded bg-gray-700 hover:bg-gray-600 text-white" href="/logs/?{{.BaseQuery}}&page={{.Logs.NextPage}}">Next</a>{{end}}
        </div>
    </div>
</div>
{{end}}`

const logsHTML = logTableHTML + headHTML + `
<h1 class="text-2xl font-bold mb-6">Request Log</h1>
<div class="grid grid-cols-1 md:grid-cols-4 gap-6 mb-8">
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
        <div class="text-gray-400 text-sm mb-1">Total Requests</div>
        <div class="text-3xl font-bold text-white">{{.Stats.TotalRequests}}</div>
    </div>
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
        <div class="text-gray-400 text-sm mb-1">Last Hour</div>
        <div class="text-3xl font-bold text-white">{{.Stats.RequestsLastHour}}</div>
    </div>
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
        <div class="text-gray-400 text-sm mb-1">Last 24 Hours</div>
        <div class="text-3xl font-bold text-white">{{.Stats.RequestsLast24h}}</div>
    </div>
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
        <div class="text-gray-400 text-sm mb-1">Avg Response (24h)</div>
        <div class="text-3xl font-bold text-white">{{printf "%.0f" .Stats.AvgResponseTime}} ms</div>
    </div>
</div>
<form method="get" action="/logs/" class="flex flex-wrap gap-4 mb-6"
      hx-get="/logs/" hx-target="#logs-table" hx-swap="outerHTML" hx-trigger="change, submit">
    <select name="method" class="bg-gray-800 border border-gray-700 rounded px-3 py-2 text-sm">
        <option value="">All methods</option>
        {{$m := .Filters.method}}
        {{range .Methods}}<option value="{{.}}" {{if eq . $m}}selected{{end}}>{{.}}</option>{{end}}
    </select>
    <input name="path" value="{{.Filters.path}}" placeholder="Path contains"
           class="bg-gray-800 border border-gray-700 rounded px-3 py-2 text-sm">
    <input name="user" value="{{.Filters.user}}" placeholder="User"
           class="bg-gray-800 border border-gray-700 rounded px-3 py-2 text-sm">
    <input name="status" value="{{.Filters.status}}" placeholder="Status code"
           class="bg-gray-800 border border-gray-700 rounded px-3 py-2 text-sm w-32">
    <button type="submit" class="px-4 py-2 bg-gray-700 hover:bg-gray-600 text-white rounded text-sm font-bold">Filter</button>
</form>
{{template "logs_table" .}}
` + footHTML

const recentHTML = headHTML + `
<div class="flex justify-between items-center mb-6">
    <h1 class="text-2xl font-bold">Recent Requests</h1>
    <span class="text-sm text-gray-400">Live updates via SSE</span>
</div>
<div class="bg-gray-900 border border-gray-700 rounded-lg overflow-hidden">
    <table class="w-full text-sm text-left">
        <thead class="bg-gray-800 text-gray-400 uppercase text-xs">
            <tr>
                <th class="px-4 py-3">Time</th>
                <th class="px-4 py-3">Method</th>
                <th class="px-4 py-3">Path</th>
                <th class="px-4 py-3">User</th>
                <th class="px-4 py-3">Status</th>
                <th class="px-4 py-3">Duration</th>
                <th class="px-4 py-3">Client</th>
            </tr>
        </thead>
        <tbody hx-ext="sse"
               sse-connect="/logs/stream/"
               sse-swap="log"
               hx-swap="afterbegin">
            {{range .Records}}
            <tr class="border-b border-gray-700 hover:bg-gray-800">
                <td class="px-4 py-2 text-gray-400 text-xs">{{.Timestamp.Format "2006-01-02 15:04:05"}}</td>
                <td class="px-4 py-2 font-mono text-xs">{{.Method}}</td>
                <td class="px-4 py-2 font-mono text-sm">{{.Path}}</td>
                <td class="px-4 py-2">{{userName .User}}</td>
                <td class="px-4 py-2"><span class="px-2 py-1 rounded text-xs font-bold {{statusColor .StatusClass}}">{{statusText .ResponseStatus}}</span></td>
                <td class="px-4 py-2 text-gray-400 text-xs">{{msec .ResponseTimeMs}}</td>
                <td class="px-4 py-2 text-gray-400 text-xs">{{.RemoteIP}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>
</div>
` + footHTML

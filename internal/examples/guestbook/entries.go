package main

import (
	"database/sql"

	g "maragu.dev/gomponents"
	gh "maragu.dev/gomponents/html"
)

// RenderEntries renders guestbook rows as a list gomponent. The list carries
// a stable id so SSE patches merge into the existing DOM node.
func RenderEntries(rows *sql.Rows) (g.Node, error) {
	var items []g.Node
	for rows.Next() {
		var name, message string
		if err := rows.Scan(&name, &message); err != nil {
			return nil, err
		}
		items = append(items, gh.Li(
			gh.Strong(g.Text(name)),
			g.Text(": "+message),
		))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return gh.Ul(append([]g.Node{gh.ID("entries")}, items...)...), nil
}

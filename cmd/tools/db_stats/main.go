// db_stats prints per-user grant database and match session counts.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/parishfund/grantmatch/internal/db"
)

func main() {
	ctx := context.Background()
	pool, err := db.Connect(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, `
		SELECT u.email,
			COUNT(DISTINCT g.id),
			COUNT(DISTINCT f.id),
			COUNT(DISTINCT ms.session_id) FILTER (WHERE ms.expires_at >= NOW()),
			MAX(ms.created_at)
		FROM users u
		LEFT JOIN grants g ON g.user_id = u.id
		LEFT JOIN foundations f ON f.user_id = u.id
		LEFT JOIN match_sessions ms ON ms.user_id = u.id
		GROUP BY u.email
		ORDER BY u.email
	`)
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"User", "Grants", "Foundations", "Active Sessions", "Last Match"})

	for rows.Next() {
		var email string
		var grants, foundations, sessions int
		var lastMatch *time.Time

		if err := rows.Scan(&email, &grants, &foundations, &sessions, &lastMatch); err != nil {
			log.Printf("Scan error: %v", err)
			continue
		}

		last := "Never"
		if lastMatch != nil {
			last = lastMatch.Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{email, grants, foundations, sessions, last})
	}
	t.Render()
}

// cleanup_sessions deletes match sessions past their 90-day expiry.
// Intended to run from cron.
package main

import (
	"context"
	"log"
	"os"

	"github.com/parishfund/grantmatch/internal/db"
)

func main() {
	ctx := context.Background()
	pool, err := db.Connect(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	removed, err := db.NewStore(pool).DeleteExpiredSessions(ctx)
	if err != nil {
		log.Fatalf("cleanup failed: %v", err)
	}
	log.Printf("Removed %d expired match sessions", removed)
}

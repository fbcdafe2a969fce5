// simulate fires a burst of concurrent booking requests for one vet and
// one window, then reports how many landed. With the per-vet lock in
// place exactly one request may succeed; everything else must come back
// as a conflict.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/furwell/vetclinic-scheduling/internal/db"
)

type result struct {
	status  int
	code    string
	latency time.Duration
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		baseURL = flag.String("api", envOr("API_BASE_URL", "http://127.0.0.1:8080"), "API base URL")
		workers = flag.Int("workers", 25, "concurrent booking attempts")
		tz      = flag.String("tz", envOr("CLINIC_TZ", "UTC"), "clinic time zone")
	)
	flag.Parse()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	vetID, petIDs, err := loadFixtures(ctx, pool, *workers)
	if err != nil {
		log.Fatalf("load fixtures: %v", err)
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		log.Fatalf("load location: %v", err)
	}
	start, end := nextWeekdayWindow(loc)

	log.Printf("firing %d concurrent bookings: vet=%s window=%s..%s",
		*workers, vetID, start.Format(time.RFC3339), end.Format(time.RFC3339))

	results := make([]result, *workers)
	var inflight sync.WaitGroup
	var started atomic.Int32

	gate := make(chan struct{})
	for i := 0; i < *workers; i++ {
		inflight.Add(1)
		go func(i int) {
			defer inflight.Done()
			started.Add(1)
			<-gate
			results[i] = book(*baseURL, vetID, petIDs[i%len(petIDs)], start, end)
		}(i)
	}

	// Release every worker at once for maximum overlap.
	for int(started.Load()) < *workers {
		time.Sleep(time.Millisecond)
	}
	close(gate)
	inflight.Wait()

	report(results)
}

func loadFixtures(ctx context.Context, pool *pgxpool.Pool, petCount int) (uuid.UUID, []uuid.UUID, error) {
	var vetID uuid.UUID
	err := pool.QueryRow(ctx, `
		SELECT v.id
		FROM vets v
		JOIN availability_slots s ON s.vet_id = v.id
		WHERE v.active
		LIMIT 1
	`).Scan(&vetID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("pick vet: %w", err)
	}

	rows, err := pool.Query(ctx, `
		SELECT id FROM pets WHERE NOT archived LIMIT $1
	`, petCount)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	var petIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return uuid.Nil, nil, err
		}
		petIDs = append(petIDs, id)
	}
	if len(petIDs) == 0 {
		return uuid.Nil, nil, fmt.Errorf("no pets seeded")
	}
	return vetID, petIDs, rows.Err()
}

// nextWeekdayWindow picks 10:00-10:30 local on the next Monday-Friday day,
// matching the windows the seed command creates.
func nextWeekdayWindow(loc *time.Location) (time.Time, time.Time) {
	day := time.Now().In(loc).AddDate(0, 0, 1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, loc)
	return start, start.Add(30 * time.Minute)
}

func book(baseURL string, vetID, petID uuid.UUID, start, end time.Time) result {
	body, _ := json.Marshal(map[string]any{
		"pet_id": petID.String(),
		"vet_id": vetID.String(),
		"start":  start.Format(time.RFC3339),
		"end":    end.Format(time.RFC3339),
	})

	t0 := time.Now()
	resp, err := http.Post(baseURL+"/appointments", "application/json", bytes.NewReader(body))
	latency := time.Since(t0)
	if err != nil {
		return result{status: -1, code: err.Error(), latency: latency}
	}
	defer resp.Body.Close()

	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &payload)

	return result{status: resp.StatusCode, code: payload.Error, latency: latency}
}

func report(results []result) {
	var success, conflict, other int
	var worst time.Duration
	codes := map[string]int{}

	for _, r := range results {
		switch {
		case r.status == http.StatusCreated:
			success++
		case r.status == http.StatusConflict:
			conflict++
		default:
			other++
		}
		if r.code != "" {
			codes[r.code]++
		}
		if r.latency > worst {
			worst = r.latency
		}
	}

	log.Printf("success=%d conflict=%d other=%d max_latency=%s", success, conflict, other, worst)
	for code, n := range codes {
		log.Printf("  %s: %d", code, n)
	}

	if success > 1 {
		log.Fatalf("RACE: %d bookings landed for the same window", success)
	}
	log.Println("at-most-one-success holds")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

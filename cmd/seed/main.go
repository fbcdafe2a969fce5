package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/furwell/vetclinic-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

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

	gofakeit.Seed(time.Now().UnixNano())

	vetIDs, err := seedVets(context.Background(), pool, 20)
	if err != nil {
		log.Fatalf("seed vets: %v", err)
	}
	if err := seedAvailability(context.Background(), pool, vetIDs); err != nil {
		log.Fatalf("seed availability: %v", err)
	}
	if err := seedOwnersAndPets(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed owners and pets: %v", err)
	}

	log.Println("seed complete")
}

func seedVets(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d vets", count)

	specialties := []string{
		"General Practice",
		"Surgery",
		"Dermatology",
		"Dentistry",
		"Exotics",
		"Cardiology",
		"Oncology",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		email := gofakeit.Email()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO vets (id, user_id, name, email, specialty, active, created_at, updated_at)
			VALUES ($1, NULL, $2, $3, $4, true, now(), now())
		`, id, name, email, spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("vets seeded")
	return ids, nil
}

// seedAvailability gives every vet a weekday template: morning and
// afternoon windows Monday through Friday, touching at lunch for some.
func seedAvailability(ctx context.Context, pool *pgxpool.Pool, vetIDs []uuid.UUID) error {
	log.Printf("seeding availability for %d vets", len(vetIDs))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, vetID := range vetIDs {
		for weekday := 1; weekday <= 5; weekday++ {
			windows := [][2]int{
				{9 * 60, 12 * 60},  // 09:00-12:00
				{13 * 60, 17 * 60}, // 13:00-17:00
			}
			for _, w := range windows {
				_, err := tx.Exec(ctx, `
					INSERT INTO availability_slots (id, vet_id, weekday, start_minute, end_minute, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, now(), now())
				`, uuid.New(), vetID, weekday, w[0], w[1])
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("availability seeded")
	return nil
}

func seedOwnersAndPets(ctx context.Context, pool *pgxpool.Pool, ownerCount int) error {
	log.Printf("seeding %d owners", ownerCount)

	species := []string{"dog", "cat", "rabbit", "parrot", "hamster", "lizard"}

	const batchSize = 100

	for offset := 0; offset < ownerCount; offset += batchSize {
		end := offset + batchSize
		if end > ownerCount {
			end = ownerCount
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			ownerID := uuid.New()
			_, err := tx.Exec(ctx, `
				INSERT INTO owners (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, ownerID, gofakeit.Name(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}

			pets := gofakeit.Number(1, 3)
			for p := 0; p < pets; p++ {
				_, err := tx.Exec(ctx, `
					INSERT INTO pets (id, owner_id, name, species, archived, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, now(), now())
				`, uuid.New(), ownerID, gofakeit.PetName(),
					species[gofakeit.Number(0, len(species)-1)],
					gofakeit.Number(0, 19) == 0) // a few archived records
				if err != nil {
					_ = tx.Rollback(ctx)
					return err
				}
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("owners seeded: %d/%d", end, ownerCount)
	}

	log.Println("owners and pets seeded")
	return nil
}

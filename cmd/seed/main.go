package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog/log"

	"github.com/carewave/hospital-scheduling/internal/appointment"
	"github.com/carewave/hospital-scheduling/internal/availability"
	"github.com/carewave/hospital-scheduling/internal/db"
	"github.com/carewave/hospital-scheduling/internal/lock"
	"github.com/carewave/hospital-scheduling/internal/logging"
)

func main() {
	logging.Setup("seed", "dev")
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	store := availability.NewStore(availability.NewPgRepository(pool), lock.NewKeyedMutex())
	repo := appointment.NewPgRepository(pool)

	if err := seedDoctors(context.Background(), store, 100); err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedPatients(context.Background(), repo, 9000); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}

	log.Info().Msg("seed complete")
}

var departments = map[string][]string{
	"Dermatology":      {"Dermatology"},
	"Cardiology":       {"Cardiology"},
	"General Medicine": {"General Practice", "Endocrinology"},
	"Surgery":          {"Orthopedics", "ENT"},
	"Neurology":        {"Neurology", "Psychiatry"},
	"Pediatrics":       {"Pediatrics"},
	"Ophthalmology":    {"Ophthalmology"},
}

func seedDoctors(ctx context.Context, store *availability.Store, count int) error {
	log.Info().Int("count", count).Msg("seeding doctors")

	var deptNames []string
	for name := range departments {
		deptNames = append(deptNames, name)
	}

	for i := 0; i < count; i++ {
		dept := deptNames[gofakeit.Number(0, len(deptNames)-1)]
		specs := departments[dept]

		doc := availability.Doctor{
			Name:        "Dr. " + gofakeit.Name(),
			Specialty:   specs[gofakeit.Number(0, len(specs)-1)],
			Department:  dept,
			SlotMinutes: []int{15, 20, 30, 45}[gofakeit.Number(0, 3)],
			Pattern:     randomPattern(),
		}
		if err := store.CreateDoctor(ctx, &doc); err != nil {
			return err
		}
	}

	log.Info().Msg("doctors seeded")
	return nil
}

// randomPattern builds a plausible working week: weekday mornings, most
// afternoons, occasionally a half day.
func randomPattern() availability.WeeklyPattern {
	pattern := availability.WeeklyPattern{}
	for day := time.Monday; day <= time.Friday; day++ {
		startHour := gofakeit.Number(8, 10)
		pattern[day] = []availability.Interval{
			{Start: startHour * 60, End: 12 * 60},
		}
		if gofakeit.Number(0, 4) > 0 { // one afternoon in five off
			endHour := gofakeit.Number(16, 18)
			pattern[day] = append(pattern[day], availability.Interval{
				Start: 13 * 60, End: endHour * 60,
			})
		}
	}
	return pattern
}

func seedPatients(ctx context.Context, repo *appointment.PgRepository, count int) error {
	log.Info().Int("count", count).Msg("seeding patients")

	for i := 0; i < count; i++ {
		email := gofakeit.Email()
		phone := gofakeit.Phone()
		p := appointment.Patient{
			Name:  gofakeit.Name(),
			Email: &email,
			Phone: &phone,
		}
		if err := repo.CreatePatient(ctx, &p); err != nil {
			return err
		}

		if (i+1)%500 == 0 {
			log.Info().Int("done", i+1).Int("total", count).Msg("patients seeded")
		}
	}

	log.Info().Msg("patients seeded")
	return nil
}

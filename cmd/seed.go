package cmd

import (
	"context"
	"fmt"
	"time"

	"meridian/database"
	"meridian/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
)

// demoServices is the catalog loaded by `meridian seed`.
var demoServices = []models.Service{
	{ID: "svc-back-pain", Name: "Back pain relief", Price: 1200, DurationMinutes: 60, TargetCondition: "lower back pain", Published: true},
	{ID: "svc-migraine", Name: "Migraine and tension relief", Price: 1000, DurationMinutes: 45, TargetCondition: "migraine", Published: true},
	{ID: "svc-neck-shoulder", Name: "Neck and shoulder release", Price: 1000, DurationMinutes: 45, TargetCondition: "neck stiffness", Published: true},
	{ID: "svc-sleep", Name: "Sleep support", Price: 900, DurationMinutes: 40, TargetCondition: "insomnia", Published: false},
}

// demoProviders builds perArea active providers in every service area with
// spread out ratings and experience so the dispatch order is visible.
func demoProviders(perArea int, now time.Time) []models.Provider {
	var out []models.Provider
	n := 1
	for _, area := range models.ServiceAreas {
		for i := 0; i < perArea; i++ {
			offered := []string{demoServices[0].ID}
			if i%2 == 0 {
				offered = append(offered, demoServices[1].ID)
			} else {
				offered = append(offered, demoServices[2].ID)
			}
			out = append(out, models.Provider{
				ID:              uuid.New().String(),
				Name:            fmt.Sprintf("%s therapist %d", area, i+1),
				Phone:           fmt.Sprintf("+2547%08d", n),
				ServiceArea:     area,
				OfferedServices: offered,
				Status:          models.ProviderActive,
				Rating:          3.5 + float64((n*7)%16)/10,
				CompletionRate:  0.8 + float64(n%3)/20,
				ExperienceYears: 1 + (n*3)%12,
				Territory:       string(area),
				CreatedAt:       now,
				UpdatedAt:       now,
			})
			n++
		}
	}
	return out
}

func seedCmd() *cobra.Command {
	var (
		perArea int
		reset   bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a demo catalog and provider registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			repos, err := connectMongo(ctx)
			if err != nil {
				return err
			}
			defer database.Close(context.Background())

			if reset {
				for _, name := range []string{"providers", "services"} {
					if _, err := database.DB().Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
						return fmt.Errorf("failed to clear %s: %w", name, err)
					}
				}
			}

			now := time.Now().UTC()
			for i := range demoServices {
				svc := demoServices[i]
				svc.UpdatedAt = now
				if err := repos.Services.Upsert(ctx, &svc); err != nil {
					return err
				}
			}
			providers := demoProviders(perArea, now)
			for i := range providers {
				if err := repos.Providers.Create(ctx, &providers[i]); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d services and %d providers\n", len(demoServices), len(providers))
			return nil
		},
	}
	cmd.Flags().IntVar(&perArea, "per-area", 3, "providers per service area")
	cmd.Flags().BoolVar(&reset, "reset", false, "clear providers and services first")
	return cmd
}

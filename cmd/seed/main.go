// Command seed regenerates the synthetic simulation dataset.
package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"

	"github.com/threatsim/threatsim/internal/config"
	"github.com/threatsim/threatsim/internal/database"
	"github.com/threatsim/threatsim/internal/simdata"
)

func main() {
	keep := flag.Bool("keep", false, "keep existing data instead of resetting first")
	mfaFatigue := flag.Int("mfa-fatigue", 3, "number of MFA fatigue scenarios")
	impossibleTravel := flag.Int("impossible-travel", 2, "number of impossible travel scenarios")
	oauthAbuse := flag.Int("oauth-abuse", 2, "number of OAuth consent abuse scenarios")
	privEsc := flag.Int("privilege-escalation", 2, "number of privilege escalation scenarios")
	normalEvents := flag.Int("normal-events", 200, "number of baseline events")
	days := flag.Int("days", 7, "span of synthetic history in days")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.Connect(cfg.DatabaseURL, logger.Warn); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	if err := database.InitializeDefaults(); err != nil {
		log.Fatalf("Failed to initialize database defaults: %v", err)
	}

	generator := simdata.NewGenerator(database.GetDB())

	if !*keep {
		if err := generator.Reset(); err != nil {
			log.Fatalf("Failed to reset simulation data: %v", err)
		}
		log.Printf("Cleared existing simulation data")
	}

	result, err := generator.Seed(simdata.SeedSpec{
		MFAFatigue:          *mfaFatigue,
		ImpossibleTravel:    *impossibleTravel,
		OAuthAbuse:          *oauthAbuse,
		PrivilegeEscalation: *privEsc,
		NormalEvents:        *normalEvents,
		BaselineDays:        *days,
	})
	if err != nil {
		log.Fatalf("Failed to seed simulation data: %v", err)
	}

	log.Printf("Data generation complete: %d events, %d alerts, %d incidents",
		result.Events, result.Alerts, result.Incidents)
}

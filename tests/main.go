package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"arctech/config"
	"arctech/database"
	appointmentRepo "arctech/database/repository/appointment"
	"arctech/models"
	"arctech/services/appointment"
	"arctech/services/changefeed"
	"arctech/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// Seeds the appointments collection with a week of sample visits. Running
// servers pick the documents up through the change feed.
func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()

	client, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer database.CloseDB(context.Background())

	var feed appointmentRepo.ChangeFeed
	if cfg.ChangeFeed == config.FeedRedis {
		if err := utils.InitRedis(); err != nil {
			log.Printf("Change feed unavailable, servers will not refresh: %v", err)
		} else {
			feed = changefeed.NewRedisFeed(utils.GetChangesClient(), cfg.RedisChannelPrefix, logger)
		}
	}
	repo := appointmentRepo.NewMongoAppointmentRepo(client, cfg.DatabaseName, feed, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := repo.EnsureCollection(ctx, cfg.AppointmentsCollection); err != nil {
		log.Fatalf("Failed to prepare collection: %v", err)
	}

	// Clear existing appointments.
	coll := client.Database(cfg.DatabaseName).Collection(cfg.AppointmentsCollection)
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		log.Fatalf("Failed to clear appointments collection: %v", err)
	}

	titles := []string{"Cleaning", "Checkup", "Filling", "Extraction", "Whitening", "Consultation"}
	loc := cfg.Location()
	today := time.Now().In(loc)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	inserted := 0
	for day := 0; day < 7; day++ {
		date := time.Date(today.Year(), today.Month(), today.Day()+day, 0, 0, 0, 0, loc)
		perDay := 1 + rng.Intn(4)
		for i := 0; i < perDay; i++ {
			// Slots between 8:00 and 16:30 on the half hour.
			start := date.Add(time.Duration(16+rng.Intn(18)) * 30 * time.Minute)
			appt := models.Appointment{
				Title:           titles[rng.Intn(len(titles))],
				Date:            start,
				DurationMinutes: models.AllowedDurations[rng.Intn(len(models.AllowedDurations))],
				IsPublic:        rng.Intn(2) == 0,
			}
			id := uuid.New().String()
			if _, err := repo.CreateDocument(ctx, cfg.AppointmentsCollection, id, appointment.ToRecord(appt)); err != nil {
				log.Fatalf("Failed to insert appointment: %v", err)
			}
			inserted++
		}
	}
	fmt.Printf("Inserted %d appointments into %s.%s\n", inserted, cfg.DatabaseName, cfg.AppointmentsCollection)
}

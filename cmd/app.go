package cmd

import (
	"context"
	"fmt"

	"meridian/config"
	"meridian/cron"
	"meridian/database"
	"meridian/database/repository"
	"meridian/services/events"
	"meridian/services/notification"
	"meridian/services/registry"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// connectMongo opens the global client and returns the repositories.
func connectMongo(ctx context.Context) (*repository.Mongo, error) {
	if err := database.InitDB(ctx); err != nil {
		return nil, err
	}
	return repository.NewMongo(database.DB()), nil
}

// newPublisher returns a Kafka publisher, or a log publisher when no brokers are configured.
func newPublisher(logger *zap.Logger) (events.Publisher, error) {
	brokers := config.AppConfig.Brokers()
	if len(brokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, booking events go to the log")
		return events.LogPublisher{Logger: logger}, nil
	}
	publisher, err := events.NewKafkaPublisher(brokers, config.AppConfig.KafkaTopic)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}
	return publisher, nil
}

// newSender returns the FCM sender, or a log sender when no credentials are configured.
func newSender(ctx context.Context, logger *zap.Logger) (notification.Sender, error) {
	credentials := config.AppConfig.FirebaseCredentialsFile
	if credentials == "" {
		logger.Info("FIREBASE_CREDENTIALS_FILE not set, push notifications go to the log")
		return notification.LogSender{Logger: logger}, nil
	}
	return notification.NewFCMSender(ctx, credentials)
}

func newRegistry(repos *repository.Mongo, logger *zap.Logger) *registry.DefaultRegistryService {
	return registry.NewRegistryService(repos.Providers, repos.Patients, repos.Packages,
		database.NewMongoTxRunner(database.MongoClient), logger)
}

func newQueueClient() *asynq.Client {
	return asynq.NewClient(cron.RedisOpt())
}

package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"meridian/cron"
	"meridian/database"
	"meridian/services/notification"
	"meridian/utils"

	"github.com/spf13/cobra"
)

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Deliver queued notifications and run the package expiry schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := utils.GetLogger()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			repos, err := connectMongo(ctx)
			if err != nil {
				return err
			}
			defer database.Close(context.Background())
			utils.StartHealthMonitor(ctx, 30*time.Second, nil, database.MongoClient)

			sender, err := newSender(ctx, logger)
			if err != nil {
				return err
			}
			dispatcher := &notification.Dispatcher{
				Bookings:  repos.Bookings,
				Patients:  repos.Patients,
				Providers: repos.Providers,
				Sender:    sender,
				Logger:    logger,
			}
			return cron.NewWorker(cron.RedisOpt(), dispatcher, newRegistry(repos, logger), logger).Run(ctx)
		},
	}
}

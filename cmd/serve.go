package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"meridian/config"
	"meridian/database"
	"meridian/handlers"
	"meridian/middleware"
	"meridian/routes"
	"meridian/services/booking"
	"meridian/services/catalog"
	"meridian/services/dispatch"
	"meridian/services/notification"
	"meridian/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(parent context.Context) error {
	logger := utils.GetLogger()
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := connectMongo(ctx)
	if err != nil {
		return err
	}
	defer database.Close(context.Background())
	if err := repos.EnsureIndexes(ctx); err != nil {
		return err
	}

	cacheClient := utils.GetCacheClient()
	defer cacheClient.Close()
	utils.StartHealthMonitor(ctx, 30*time.Second, cacheClient, database.MongoClient)

	publisher, err := newPublisher(logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	queue := newQueueClient()
	defer queue.Close()
	notifier := notification.NewQueueNotifier(queue)

	catalogSvc := catalog.NewCatalogService(repos.Services, catalog.NewRedisCache(cacheClient),
		config.AppConfig.CatalogCacheTTL, logger)
	matcher := dispatch.NewMatcher(repos.Providers, repos.Bookings, notifier, publisher, logger)
	bookingSvc := &booking.DefaultBookingService{
		Bookings:     repos.Bookings,
		Packages:     repos.Packages,
		Patients:     repos.Patients,
		Providers:    repos.Providers,
		Catalog:      catalogSvc,
		Tx:           database.NewMongoTxRunner(database.MongoClient),
		Notifier:     notifier,
		Events:       publisher,
		Logger:       logger,
		Now:          time.Now,
		DefaultLimit: config.AppConfig.DefaultListLimit,
		MaxLimit:     config.AppConfig.MaxListLimit,
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	routes.RegisterRoutes(router, &handlers.HandlerBundle{
		Booking:  handlers.NewBookingHandler(bookingSvc, matcher),
		Registry: handlers.NewRegistryHandler(newRegistry(repos, logger)),
		Catalog:  handlers.NewCatalogHandler(catalogSvc),
	}, config.AppConfig.MaxRequestsPerMin)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + config.AppConfig.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

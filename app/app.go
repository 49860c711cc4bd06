package app

import (
	"context"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-manager/config"
	"github.com/Astemirdum/library-manager/internal/handler"
	"github.com/Astemirdum/library-manager/internal/repository"
	"github.com/Astemirdum/library-manager/internal/server"
	"github.com/Astemirdum/library-manager/internal/service"
	"github.com/Astemirdum/library-manager/internal/worker"
	"github.com/Astemirdum/library-manager/migrations"
	"github.com/Astemirdum/library-manager/pkg/kafka"
	"github.com/Astemirdum/library-manager/pkg/logger"
	"github.com/Astemirdum/library-manager/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library-manager")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	var pub service.Publisher
	if len(cfg.Kafka.Addrs) != 0 {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		defer producer.Close()
		pub = kafka.NewPublisher(producer)
	}

	catalogSvc := service.NewCatalogService(repo, repo, log)
	userSvc := service.NewUserService(repo, repo, cfg.Auth, log)
	checkoutSvc := service.NewCheckoutService(repo, repo, pub, cfg.Lending.Period, log)

	h := handler.New(catalogSvc, userSvc, checkoutSvc, cfg.Auth, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	sweeper := worker.NewSweeper(checkoutSvc, cfg.Lending.SweepInterval, log)

	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		return sweeper.Run(gCtx)
	})
	g.Go(func() error {
		<-gCtx.Done()
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("run", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}

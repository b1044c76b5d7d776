package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookstack-dev/catalog-service/catalog/config"
	"github.com/bookstack-dev/catalog-service/catalog/internal/events"
	"github.com/bookstack-dev/catalog-service/catalog/internal/handler"
	"github.com/bookstack-dev/catalog-service/catalog/internal/repository"
	"github.com/bookstack-dev/catalog-service/catalog/internal/server"
	"github.com/bookstack-dev/catalog-service/catalog/internal/service"
	"github.com/bookstack-dev/catalog-service/catalog/migrations"
	"github.com/bookstack-dev/catalog-service/pkg/kafka"
	"github.com/bookstack-dev/catalog-service/pkg/logger"
	"github.com/bookstack-dev/catalog-service/pkg/postgres"
	"github.com/IBM/sarama"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "catalog")

	var (
		repo repository.Repository
		db   *sqlx.DB
		err  error
	)
	switch cfg.Store {
	case config.StorePostgres:
		db, err = postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
		if err != nil {
			log.Fatal("db init", zap.Error(err))
		}
		repo, err = repository.NewRepository(db, log)
		if err != nil {
			log.Fatal("repo", zap.Error(err))
		}
	default:
		repo, err = repository.NewMemStore(log)
		if err != nil {
			log.Fatal("memstore", zap.Error(err))
		}
	}

	var (
		pub      events.Publisher = events.NopPublisher{}
		producer sarama.SyncProducer
	)
	if len(cfg.Kafka.Addrs) > 0 {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		pub = events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	}

	svc := service.NewService(repo, pub, log)

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter(cfg.Auth.Users()))
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	if producer != nil {
		_ = producer.Close()
	}
	if db != nil {
		db.Close()
	}
	log.Info("Graceful shutdown finished")
}

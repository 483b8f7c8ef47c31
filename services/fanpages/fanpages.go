package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"

	"github.com/relabs-tech/fanpages/core"
	"github.com/relabs-tech/fanpages/core/backend"
	"github.com/relabs-tech/fanpages/core/csql"
	"github.com/relabs-tech/fanpages/core/logger"
	"github.com/relabs-tech/fanpages/core/notifier"
)

// Service holds the configuration for this service
//
// use POSTGRES="host=localhost port=5432 user=postgres dbname=postgres sslmode=disable"
// and POSTGRES_PASSWORD="docker"
type Service struct {
	Postgres         string `env:"POSTGRES,required" description:"the connection string for the Postgres DB without password"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,optional" description:"password to the Postgres DB"`
	Port             int    `env:"PORT,default=3000" description:"the port the service listens on"`
	LogLevel         string `env:"LOG_LEVEL,default=info" description:"the log level: debug, info, warning or error"`
	KafkaBrokers     string `env:"KAFKA_BROKERS,optional" description:"comma separated kafka brokers, notifications are disabled without"`
	KafkaTopic       string `env:"KAFKA_TOPIC,default=fan_page_notification" description:"the kafka topic for notifications"`
}

// brokers returns the configured kafka brokers
func (s *Service) brokers() []string {
	var brokers []string
	for _, broker := range strings.Split(s.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func main() {
	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		panic(err)
	}
	logger.InitLogger(logger.ParseLevel(service.LogLevel))
	rlog := logger.Default()

	db := csql.OpenWithSchemas(service.Postgres, service.PostgresPassword, backend.Schemas...)
	defer db.Close()

	var n core.Notifier
	if brokers := service.brokers(); len(brokers) > 0 {
		kafkaNotifier := notifier.NewKafka(brokers, service.KafkaTopic)
		defer kafkaNotifier.Close()
		n = kafkaNotifier
	} else {
		rlog.Infoln("no kafka brokers configured, notifications are disabled")
	}

	router := mux.NewRouter()
	logger.AddRequestID(router)
	backend.New(&backend.Builder{
		DB:           db,
		Router:       router,
		Notifier:     n,
		UpdateSchema: true,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(service.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		rlog.Infoln("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	rlog.Infoln("listen on port", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		rlog.WithError(err).Errorln("server stopped")
	}
}

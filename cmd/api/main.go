// Package main wires the whole converter app: config, logger, storage, kafka,
// HTTP routes and graceful shutdown
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/BatchConverter/internal/advice"
	"github.com/UnendingLoop/BatchConverter/internal/kafka"
	"github.com/UnendingLoop/BatchConverter/internal/metrics"
	"github.com/UnendingLoop/BatchConverter/internal/mwlogger"
	"github.com/UnendingLoop/BatchConverter/internal/service"
	"github.com/UnendingLoop/BatchConverter/internal/storage"
	"github.com/UnendingLoop/BatchConverter/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Fatalf("Failed to load envs: %s\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel("info"); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключиться к хранилищу артефактов
	strg := storage.NewArtifactStorage(appConfig, 10*time.Second)

	// ждем пока кафка раздуплится и заводим топик событий о прогонах
	broker := appConfig.GetString("KAFKA_BROKER")
	kafka.WaitKafkaReady(broker)
	topic := appConfig.GetString("KAFKA_TOPIC")
	kafka.InitEventTopics(ctx, broker, 10*time.Second, topic)
	pub := wbfkafka.NewProducer([]string{broker}, topic)

	// создаем экземпляр сервиса
	var svc ImageAPIService = service.NewImageService(pub, strg)

	// ИИ-помощник опционален - без ключа эндпоинт просто отвечает 503
	var adv transport.Advisor
	if a, err := advice.NewAdvisor(appConfig); err != nil {
		log.Printf("Advice endpoint disabled: %v", err)
	} else {
		adv = a
	}

	// cоздаем экземпляр хендлера HTTP и сетапим сервер
	handlers := transport.NewImageHandler(svc, adv)
	mode := appConfig.GetString("GIN_MODE")
	engine := ginext.New(mode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.POST("/uploads", handlers.Upload)             // загрузка картинок/архивов в очередь
	engine.GET("/uploads", handlers.ListQueue)           // снапшот очереди
	engine.DELETE("/uploads", handlers.ClearQueue)       // очистка очереди и артефакта
	engine.POST("/batch/run", handlers.RunBatch)         // синхронный прогон конвертации
	engine.GET("/batch/progress", handlers.Progress)     // прогресс текущего прогона
	engine.GET("/batch/artifact", handlers.DownloadArtifact)
	engine.POST("/advice", handlers.Advice) // ИИ-помощник
	engine.GET("/metrics", func(c *ginext.Context) {
		metrics.Handler().ServeHTTP(c.Writer, c.Request)
	})
	engine.Static("/web", "./internal/web")

	srv := &http.Server{
		Addr:    ":" + appConfig.GetString("APP_PORT"),
		Handler: mwlogger.NewMWLogger(engine),
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// ждем отмены контекста для запуска грейсфул закрытия соединений
	<-ctx.Done()

	shutdown(pub)
	log.Println("Exiting app...")
}

func shutdown(pub *wbfkafka.Producer) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	// Closing Kafka connection:
	if err := pub.Close(); err != nil {
		log.Println("Failed to close Kafka-producer:", err)
	}
	log.Println("Kafka-producer connection closed.")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/malek283/shop-chat/config"
	"github.com/malek283/shop-chat/internal/queue"
	chat_repo "github.com/malek283/shop-chat/internal/repo/chat"
	user_repo "github.com/malek283/shop-chat/internal/repo/user"
	"github.com/malek283/shop-chat/internal/routers"
	chat_service "github.com/malek283/shop-chat/internal/use-case/chat-case"
	"github.com/malek283/shop-chat/internal/utils/types"
	"github.com/malek283/shop-chat/internal/websocket"
	"github.com/malek283/shop-chat/internal/worker"
	"github.com/malek283/shop-chat/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// initialize the application
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appState, err := state.InitAppState(ctx, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application state")
	}
	defer appState.Close()

	wsHub := websocket.NewHub()
	log.Info().Msg("Websocket hub initialized")

	chatRepo := chat_repo.NewChatRepo(appState)
	userRepo := user_repo.NewUserRepo(appState)
	producer := queue.NewProducer(appState.Redis)

	chatSvc := chat_service.NewChatService(chatRepo, wsHub, producer, config.Conf.CHAT.PreviewLength)

	authFunc := websocket.JWTWebSocketAuth(appState.JwtSecret.Public, appState.Redis, userRepo)
	wsHandler := websocket.NewWebSocketHandler(wsHub, authFunc, chatSvc)
	log.Info().Msg("Websocket handler initialized")

	workerPool := worker.NewWorkerPool(appState.Redis, appState.Mongo, config.Conf.CHAT.WorkerNum, wsHub, chatRepo, types.DLQRetryConfig{
		BatchSize:      10,
		RetryInterval:  5 * time.Minute,
		MaxRetryCount:  5,
		BackoffFactor:  2.0,
		DatabaseName:   "shop_chat",
		CollectionName: "dlq_jobs",
	})

	r := routers.NewRouter(appState, wsHub, wsHandler, workerPool)

	workerPool.Start(ctx)
	go workerPool.StartDLQWorker(ctx)
	workerPool.StartDLQRetryConsumer(ctx)

	server := &http.Server{
		Addr:         config.Conf.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// serve the application
	go func() {
		log.Info().Msgf("Starting server on http://localhost%s", config.Conf.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(fmt.Sprintf("ListenAndServe failed: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown initiated...")
	// gracefully shutdown the application
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Graceful shutdown failed: %v\n", err)
	} else {
		fmt.Println("Server exited gracefully.")
	}

	wsHub.Close()
	workerPool.Wait()
}

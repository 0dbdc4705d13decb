package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"facegram/internal/config"
	"facegram/internal/handlers/apiserver"
	appKafka "facegram/internal/kafka"
	kafkaHandlers "facegram/internal/kafka/handlers"
	"facegram/internal/middleware"
	appRedis "facegram/internal/redis"
	"facegram/internal/services"
	"facegram/internal/storage"
	"facegram/internal/websocket"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("API server configuration loaded.")

	// 2. Initialize database connection
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Println("API server database connected.")

	if err := storage.AutoMigrateTables(db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	// 3. Initialize Redis client and token blacklist
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis.")

	tokenBlacklistService := appRedis.NewRedisTokenBlacklist(redisClient)

	// 4. Initialize repositories
	txRunner := storage.NewGormTxRunner(db)
	userRepo := storage.NewGormUserRepository(db)
	friendReqRepo := storage.NewGormFriendRequestRepository(db)
	friendshipRepo := storage.NewGormFriendshipRepository(db)
	postRepo := storage.NewGormPostRepository(db)
	convoRepo := storage.NewGormConversationRepository(db)

	// 5. Initialize Kafka producer
	kfkProducer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer kfkProducer.Close()
	log.Println("Kafka producer initialized.")

	// 6. Initialize file storage
	storageBaseURL := "/uploads"
	fileStore, err := storage.NewLocalFileStore(cfg.Storage, storageBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize local file storage: %v", err)
	}
	log.Println("Local file storage initialized.")

	// 7. Initialize services
	authService := services.NewAuthService(userRepo, cfg)
	userService := services.NewUserService(txRunner, userRepo, friendshipRepo, postRepo, convoRepo, fileStore)
	friendshipService := services.NewFriendshipService(txRunner, userRepo, friendReqRepo, friendshipRepo, kfkProducer, cfg.Kafka)
	postService := services.NewPostService(txRunner, postRepo, userRepo, friendshipRepo, fileStore, kfkProducer, cfg.Kafka)
	conversationService := services.NewConversationService(txRunner, convoRepo, userRepo, fileStore, kfkProducer, cfg.Kafka)

	// 8. Initialize websocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// 9. Initialize handlers
	authHandler := apiserver.NewAuthHandler(authService, tokenBlacklistService)
	userHandler := apiserver.NewUserHandler(userService, friendshipService, fileStore, cfg.Storage)
	friendHandler := apiserver.NewFriendHandler(friendshipService)
	postHandler := apiserver.NewPostHandler(postService, fileStore, cfg.Storage)
	convoHandler := apiserver.NewConversationHandler(conversationService, fileStore, cfg.Storage)
	wsHandler := apiserver.NewWebSocketHandler(hub, cfg.WebSocket)

	// 10. Set up HTTP routes
	r := mux.NewRouter()

	// Public auth routes
	authRouter := r.PathPrefix("/users/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	authMW := middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, tokenBlacklistService)

	// Authenticated API routes
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(authMW)

	apiRouter.HandleFunc("/auth/logout", authHandler.LogoutHandler).Methods(http.MethodPost)

	// User routes
	apiRouter.HandleFunc("/users/me", userHandler.GetMe).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/me", userHandler.UpdateMe).Methods(http.MethodPut)
	apiRouter.HandleFunc("/users/me", userHandler.DeleteMe).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/users/me/photo", userHandler.UploadProfilePhoto).Methods(http.MethodPost)
	apiRouter.HandleFunc("/users/me/photo", userHandler.RemoveProfilePhoto).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/users/{id:[0-9]+}", userHandler.GetUser).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/{id:[0-9]+}/friends", userHandler.GetUserFriends).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/{id:[0-9]+}/posts", postHandler.GetUserPosts).Methods(http.MethodGet)

	// Friendship routes
	apiRouter.HandleFunc("/friends", friendHandler.ListFriends).Methods(http.MethodGet)
	apiRouter.HandleFunc("/friends/{id:[0-9]+}", friendHandler.RemoveFriend).Methods(http.MethodDelete)
	friendRequestRouter := apiRouter.PathPrefix("/friend-requests").Subrouter()
	friendRequestRouter.HandleFunc("", friendHandler.SendRequest).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/pending", friendHandler.ListRequests).Methods(http.MethodGet)
	friendRequestRouter.HandleFunc("/{senderId:[0-9]+}/accept", friendHandler.AcceptRequest).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/{senderId:[0-9]+}/decline", friendHandler.DeclineRequest).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/{targetId:[0-9]+}", friendHandler.WithdrawRequest).Methods(http.MethodDelete)

	// Post routes
	apiRouter.HandleFunc("/posts", postHandler.CreatePost).Methods(http.MethodPost)
	apiRouter.HandleFunc("/posts/{id:[0-9]+}", postHandler.DeletePost).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/posts/{id:[0-9]+}/like", postHandler.LikePost).Methods(http.MethodPost)
	apiRouter.HandleFunc("/posts/{id:[0-9]+}/like", postHandler.UnlikePost).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/posts/{id:[0-9]+}/comments", postHandler.CommentPost).Methods(http.MethodPost)
	apiRouter.HandleFunc("/posts/{id:[0-9]+}/comments/{commentId:[0-9]+}", postHandler.DeleteComment).Methods(http.MethodDelete)

	// Conversation routes
	apiRouter.HandleFunc("/conversations", convoHandler.CreateConversation).Methods(http.MethodPost)
	apiRouter.HandleFunc("/conversations", convoHandler.ListConversations).Methods(http.MethodGet)
	apiRouter.HandleFunc("/conversations/{id:[0-9]+}", convoHandler.GetConversation).Methods(http.MethodGet)
	apiRouter.HandleFunc("/conversations/{id:[0-9]+}/participants", convoHandler.GetParticipants).Methods(http.MethodGet)
	apiRouter.HandleFunc("/conversations/{id:[0-9]+}/messages", convoHandler.GetMessages).Methods(http.MethodGet)
	apiRouter.HandleFunc("/conversations/{id:[0-9]+}/messages", convoHandler.SendMessage).Methods(http.MethodPost)

	// Notification push
	apiRouter.HandleFunc(cfg.Server.WebSocketPath, wsHandler.ServeWs).Methods(http.MethodGet)

	// Static serving of uploaded files
	staticPath := strings.TrimSuffix(storageBaseURL, "/") + "/"
	r.PathPrefix(staticPath).Handler(http.StripPrefix(staticPath, http.FileServer(http.Dir(cfg.Storage.LocalPath))))
	log.Printf("Serving static files at %s -> %s", staticPath, cfg.Storage.LocalPath)

	// 11. Start the notification consumer feeding the hub
	notificationConsumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to create notification Kafka consumer: %v", err)
	}
	defer notificationConsumer.Close()

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	notificationHandler := kafkaHandlers.NewNotificationConsumerHandler(hub)
	go func() {
		topics := []string{cfg.Kafka.NotificationsTopic}
		log.Printf("Notification consumer starting, topic: %s, GroupID: %s", cfg.Kafka.NotificationsTopic, cfg.Kafka.ConsumerGroup)
		err := notificationConsumer.Consume(consumerCtx, topics, cfg.Kafka.ConsumerGroup, notificationHandler.HandleMessage)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Notification consumer error: %v", err)
		}
		log.Println("Notification consumer goroutine stopped.")
	}()

	// 12. Start the HTTP server with graceful shutdown
	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.Server.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.Server.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.Server.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.Server.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.Server.CORS.MaxAge),
	}
	if cfg.Server.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	corsHandler := handlers.CORS(corsOptions...)(r)

	srv := &http.Server{
		Addr:           serverAddr,
		Handler:        corsHandler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    time.Second * 60,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Printf("API server listening on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received, stopping API server...")

	cancelConsumers()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("API server forced to shut down: %v", err)
	}

	log.Println("API server stopped.")
}

package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"chatfeed/handlers"
	"chatfeed/middleware"
	"chatfeed/store"
)

func main() {
	cfg := loadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	s, err := store.New(cfg.GetString("db_path"), logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer s.Close()

	hub := handlers.NewHub(logger)
	go hub.Run()

	authHandler := handlers.NewAuthHandler(s, logger)
	channelHandler := handlers.NewChannelHandler(s, logger)
	messageHandler := handlers.NewMessageHandler(s, hub, logger)
	reactionHandler := handlers.NewReactionHandler(s, hub, logger)
	uploadHandler := handlers.NewUploadHandler(cfg.GetString("upload_dir"), logger)

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/ws", hub.HandleWebSocket)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Session
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(authHandler.Me))

	// Feed contexts
	mux.HandleFunc("GET /api/channels", middleware.RequireAuth(channelHandler.List))
	mux.HandleFunc("POST /api/channels", middleware.RequireAuth(channelHandler.Create))
	mux.HandleFunc("GET /api/channels/{id}", middleware.RequireAuth(channelHandler.Get))
	mux.HandleFunc("POST /api/conversations", middleware.RequireAuth(channelHandler.CreateConversation))
	mux.HandleFunc("GET /api/members", middleware.RequireAuth(channelHandler.Members))

	// Messages
	mux.HandleFunc("GET /api/messages", middleware.RequireAuth(messageHandler.GetPage))
	mux.HandleFunc("POST /api/messages", middleware.RequireAuth(messageHandler.Create))
	mux.HandleFunc("PUT /api/messages/{id}", middleware.RequireAuth(messageHandler.Update))
	mux.HandleFunc("DELETE /api/messages/{id}", middleware.RequireAuth(messageHandler.Delete))
	mux.HandleFunc("GET /api/messages/{id}/thread", middleware.RequireAuth(messageHandler.GetThread))

	// Reactions
	mux.HandleFunc("POST /api/reactions", middleware.RequireAuth(reactionHandler.Toggle))

	// Uploads (two-step: request target, then transfer)
	mux.HandleFunc("POST /api/uploads", middleware.RequireAuth(uploadHandler.CreateTarget))
	mux.HandleFunc("PUT /api/uploads/{id}", middleware.RequireAuth(uploadHandler.Put))
	mux.HandleFunc("GET /api/uploads/{id}", uploadHandler.Serve)

	addr := ":" + cfg.GetString("port")
	logger.Info("chatfeed server starting", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, corsMiddleware(mux)); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func loadConfig() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "./chatfeed.db")
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("page_size", 20)

	v.SetConfigName("chatfeed")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // config file is optional

	v.SetEnvPrefix("chatfeed")
	v.AutomaticEnv()
	return v
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

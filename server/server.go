package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MuseGen/config"
	"MuseGen/core/auth"
	"MuseGen/core/notify"
	"MuseGen/core/song"
	"MuseGen/core/suno"
	"MuseGen/db"
	"MuseGen/logger"
	"MuseGen/model"
	"MuseGen/repository"
	"MuseGen/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	// Connect to the database
	if err := db.Connect(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.Close()

	// Connect to Redis
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	if err := db.AutoMigrate(
		&model.User{},
		&model.Studio{},
		&model.Team{},
		&model.TeamMember{},
		&model.Song{},
	); err != nil {
		logger.Fatal("Failed to migrate database", logger.ErrorField(err))
	}

	auth.SetJWTSecret(cfg.JWTSecret)

	// 媒体文件目录
	for _, dir := range []string{cfg.StaticDir, cfg.FilesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create directory", logger.String("dir", dir), logger.ErrorField(err))
		}
	}

	// 初始化Suno会话：进程内单实例，显式注入给所有调用方。
	// cookie失效属于致命配置错误，直接退出。
	sunoClient := suno.NewClient(suno.Config{
		Cookie:   cfg.SunoCookie,
		BaseURL:  cfg.SunoBaseURL,
		ClerkURL: cfg.SunoClerkURL,
		Model:    cfg.SunoModel,
	})
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := sunoClient.Initialize(initCtx); err != nil {
		initCancel()
		logger.Fatal("Failed to initialize Suno session, check SUNO_COOKIE", logger.ErrorField(err))
	}
	if err := sunoClient.KeepAlive(initCtx, false); err != nil {
		initCancel()
		logger.Fatal("Failed to renew Suno token", logger.ErrorField(err))
	}
	initCancel()

	// 可选的MinIO归档镜像
	var mirror *storage.Mirror
	if cfg.MinioEnabled {
		if err := storage.InitMinio(cfg); err != nil {
			logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
		}
		var err error
		mirror, err = storage.NewMirror(cfg)
		if err != nil {
			logger.Fatal("Failed to create storage mirror", logger.ErrorField(err))
		}
		mirror.Start()
		defer mirror.Stop()
	}

	userRepo := repository.NewUserRepository(db.DB)
	songRepo := repository.NewSongRepository(db.DB)
	hub := notify.NewHub()
	songService := song.NewService(sunoClient, songRepo, userRepo, hub, cfg)
	ssoVerifier := auth.NewSSOVerifier(cfg.SSOSecret, cfg.SSOUserInfoURL, cfg.SSOPid)

	apiHandler := NewAPIHandler(userRepo, songRepo, songService, ssoVerifier, hub, cfg)

	router := mux.NewRouter()

	// CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 认证相关的API端点
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/user/loginOA", apiHandler.LoginOAHandler).Methods(http.MethodPost)

	// 歌曲生成与查询的API端点
	router.HandleFunc("/api/song/generate", apiHandler.AuthMiddleware(apiHandler.GenerateHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/song/custom_generate", apiHandler.AuthMiddleware(apiHandler.CustomGenerateHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/song/song_list", apiHandler.AuthMiddleware(apiHandler.SongListHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/song/song_info", apiHandler.AuthMiddleware(apiHandler.SongInfoHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/song/delete_song", apiHandler.AuthMiddleware(apiHandler.DeleteSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/song/get_credits", apiHandler.AuthMiddleware(apiHandler.GetCreditsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/song/save_status", apiHandler.AuthMiddleware(apiHandler.SaveStatusHandler)).Methods(http.MethodGet)

	// 保存结果的WebSocket推送
	router.HandleFunc("/api/ws/notify", apiHandler.NotifyWSHandler)

	// 本地媒体文件服务
	router.PathPrefix("/files/").HandlerFunc(apiHandler.FilesHandler).Methods(http.MethodGet, http.MethodHead)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second, // 生成接口等待完成最长约100秒
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("MuseGen server listening", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}
}

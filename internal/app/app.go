package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MuellerConstantin/taskcare-service/internal/config"
	"github.com/MuellerConstantin/taskcare-service/internal/events"
	"github.com/MuellerConstantin/taskcare-service/internal/handler"
	"github.com/MuellerConstantin/taskcare-service/internal/middleware"
	"github.com/MuellerConstantin/taskcare-service/internal/repository/postgres"
	"github.com/MuellerConstantin/taskcare-service/internal/service"
)

// App представляет приложение со всеми зависимостями
type App struct {
	config    *config.Config
	db        *pgxpool.Pool
	publisher events.Publisher
	server    *http.Server
	logger    *slog.Logger
}

// New создает новый экземпляр приложения
func New(cfg *config.Config) (*App, error) {
	// Инициализируем структурированный логгер (JSON формат)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	app := &App{
		config: cfg,
		logger: logger,
	}

	return app, nil
}

// Initialize инициализирует все компоненты приложения
func (a *App) Initialize(ctx context.Context) error {
	// Подключаемся к базе данных
	if err := a.connectDB(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Подключаем публикацию доменных событий
	if err := a.connectPublisher(ctx); err != nil {
		return fmt.Errorf("failed to connect event publisher: %w", err)
	}

	// Настраиваем HTTP сервер и роутинг
	a.setupServer()

	a.logger.Info("Application initialized successfully")
	return nil
}

// connectDB устанавливает подключение к PostgreSQL с connection pool
func (a *App) connectDB(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(a.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	// Настраиваем размеры connection pool
	poolConfig.MaxConns = a.config.Database.MaxConns
	poolConfig.MinConns = a.config.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверяем подключение к БД
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = pool
	a.logger.Info("Connected to database")
	return nil
}

// connectPublisher выбирает транспорт событий: Redis если он настроен, иначе лог
func (a *App) connectPublisher(ctx context.Context) error {
	if !a.config.Redis.Enabled() {
		a.publisher = events.NewLogPublisher(a.logger)
		a.logger.Info("Redis is not configured, domain events are only logged")
		return nil
	}

	publisher, err := events.NewRedisPublisher(
		ctx,
		a.config.Redis.Addr,
		a.config.Redis.Password,
		a.config.Redis.DB,
		a.config.Redis.ChannelPrefix,
		a.logger,
	)
	if err != nil {
		return err
	}

	a.publisher = publisher
	a.logger.Info("Connected to Redis", "addr", a.config.Redis.Addr)
	return nil
}

// setupServer инициализирует HTTP роутер и обработчики
func (a *App) setupServer() {
	// Инициализируем слой репозиториев (работа с БД)
	userRepo := postgres.NewUserRepository(a.db)
	boardRepo := postgres.NewBoardRepository(a.db)

	// Инициализируем слой сервисов (бизнес-логика)
	userService := service.NewUserService(userRepo)
	boardService := service.NewBoardService(boardRepo, userRepo, a.publisher, a.logger)
	authService := service.NewAuthService(
		userRepo,
		a.config.JWT.Secret,
		a.config.JWT.GetExpiration(),
	)

	// Инициализируем HTTP обработчики
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	boardHandler := handler.NewBoardHandler(boardService)

	// Инициализируем middleware для JWT авторизации
	authMiddleware := middleware.AuthMiddleware(authService)

	// Настраиваем роутер
	r := chi.NewRouter()

	// Глобальные middleware (применяются ко всем запросам)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Публичные эндпоинты (без авторизации)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
	})

	// Health check для мониторинга
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			a.logger.Error("Failed to write health check response", "error", err)
		}
	})

	// Регистрация пользователя доступна без токена (иначе первый пользователь не сможет войти)
	r.Post("/users", userHandler.Register)

	// Защищенные эндпоинты (требуют JWT токен в заголовке Authorization)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/boards", func(r chi.Router) {
			r.Post("/", boardHandler.CreateBoard)
			r.Get("/", boardHandler.ListBoards)

			r.Route("/{boardID}", func(r chi.Router) {
				r.Get("/", boardHandler.GetBoard)
				r.Delete("/", boardHandler.DeleteBoard)

				// Участники доски
				r.Post("/members", boardHandler.AddMember)
				r.Delete("/members/{username}", boardHandler.RemoveMember)

				// Задачи доски
				r.Post("/tasks", boardHandler.AddTask)
				r.Delete("/tasks/{taskID}", boardHandler.RemoveTask)
			})
		})
	})

	// Создаем HTTP сервер с настройками таймаутов
	addr := fmt.Sprintf("%s:%s", a.config.Server.Host, a.config.Server.Port)
	a.server = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.logger.Info("HTTP server configured", "addr", addr)
}

// Run запускает HTTP сервер
func (a *App) Run() error {
	a.logger.Info("Starting HTTP server", "addr", a.server.Addr)
	return a.server.ListenAndServe()
}

// Shutdown корректно останавливает приложение
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application")

	// Останавливаем HTTP сервер (ждем завершения текущих запросов)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	// Закрываем публикацию событий
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	// Закрываем подключения к базе данных
	if a.db != nil {
		a.db.Close()
	}

	a.logger.Info("Application stopped gracefully")
	return nil
}

package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/MuellerConstantin/taskcare-service/internal/config"
)

// testEnv содержит запущенное приложение и его окружение
type testEnv struct {
	app     *App
	baseURL string
	redis   *redis.Client
}

// setupTestEnv поднимает PostgreSQL в контейнере, miniredis и само приложение
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("taskcare_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")
	applyMigrations(t, connStr)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	mr := miniredis.RunT(t)

	// Используем высокий порт для тестов чтобы избежать конфликтов
	testPort := "18080"
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port: testPort,
			Host: "127.0.0.1",
		},
		Database: config.DatabaseConfig{
			Host:     host,
			Port:     port.Port(),
			User:     "test_user",
			Password: "test_password",
			Name:     "taskcare_test",
			SSLMode:  "disable",
			MaxConns: 10,
			MinConns: 1,
		},
		JWT: config.JWTConfig{
			Secret:          "test-jwt-secret-key-for-integration-tests",
			ExpirationHours: 1,
		},
		Redis: config.RedisConfig{
			Addr:          mr.Addr(),
			ChannelPrefix: "taskcare.",
		},
	}

	application, err := New(cfg)
	require.NoError(t, err, "Failed to create application")
	require.NoError(t, application.Initialize(ctx), "Failed to initialize application")

	go func() {
		if err := application.Run(); err != nil && err != http.ErrServerClosed {
			t.Logf("Server error: %v", err)
		}
	}()
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Shutdown(shutdownCtx)
	})

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{
		app:     application,
		baseURL: fmt.Sprintf("http://%s:%s", cfg.Server.Host, testPort),
		redis:   rdb,
	}
	env.waitForHealthCheck(t)
	return env
}

// applyMigrations применяет миграции БД
func applyMigrations(t *testing.T, connStr string) {
	t.Helper()

	db, err := sql.Open("pgx/v5", connStr)
	require.NoError(t, err, "Failed to open database connection")
	defer db.Close()

	migrationSQL, err := os.ReadFile(filepath.Join("..", "..", "migrations", "000001_init_schema.up.sql"))
	require.NoError(t, err, "Failed to read migration file")

	_, err = db.Exec(string(migrationSQL))
	require.NoError(t, err, "Failed to apply migration")
}

// waitForHealthCheck ждет пока приложение станет доступным
func (e *testEnv) waitForHealthCheck(t *testing.T) {
	t.Helper()

	for range 30 {
		resp, err := http.Get(e.baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatal("Application did not become healthy in time")
}

// do выполняет запрос и декодирует JSON ответ в out, если он задан
func (e *testEnv) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, e.baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()

	password := username + "-password"
	status := e.do(t, http.MethodPost, "/users", "", map[string]string{"username": username, "display_name": username, "password": password}, nil)
	require.Equal(t, http.StatusCreated, status)

	var resp struct {
		Token string `json:"token"`
	}
	status = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password}, &resp)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

type eventPayload struct {
	Kind     string `json:"kind"`
	Topic    string `json:"topic"`
	BoardID  string `json:"board_id"`
	Username string `json:"username"`
	TaskID   string `json:"task_id"`
}

func nextEvent(t *testing.T, ch <-chan *redis.Message) (string, eventPayload) {
	t.Helper()

	select {
	case msg := <-ch:
		var ev eventPayload
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		return msg.Channel, ev
	case <-time.After(2 * time.Second):
		t.Fatal("no domain event received")
		return "", eventPayload{}
	}
}

type boardResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Members []struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"members"`
	Tasks []struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		Status    string  `json:"status"`
		ExpiresAt *string `json:"expires_at"`
	} `json:"tasks"`
}

func TestE2E_BoardWorkflow(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	pubsub := env.redis.PSubscribe(ctx, "taskcare.board.*")
	defer pubsub.Close()
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)
	events := pubsub.Channel()

	alice := env.login(t, "alice")
	bob := env.login(t, "bob")
	victor := env.login(t, "victor")

	var board boardResponse
	status := env.do(t, http.MethodPost, "/boards", alice, map[string]string{"name": "Release"}, &board)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, board.ID)
	boardPath := "/boards/" + board.ID

	channel, ev := nextEvent(t, events)
	assert.Equal(t, "taskcare.board."+board.ID+".member-created", channel)
	assert.Equal(t, "member-created", ev.Kind)
	assert.Equal(t, "alice", ev.Username)

	t.Run("owner adds members", func(t *testing.T) {
		status := env.do(t, http.MethodPost, boardPath+"/members", alice, map[string]string{"username": "bob", "role": "MEMBER"}, nil)
		require.Equal(t, http.StatusCreated, status)
		_, ev := nextEvent(t, events)
		assert.Equal(t, "bob", ev.Username)

		status = env.do(t, http.MethodPost, boardPath+"/members", alice, map[string]string{"username": "victor", "role": "VISITOR"}, nil)
		require.Equal(t, http.StatusCreated, status)
		_, ev = nextEvent(t, events)
		assert.Equal(t, "victor", ev.Username)
	})

	t.Run("member rules", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden,
			env.do(t, http.MethodPost, boardPath+"/members", bob, map[string]string{"username": "victor", "role": "MEMBER"}, nil))
		assert.Equal(t, http.StatusConflict,
			env.do(t, http.MethodPost, boardPath+"/members", alice, map[string]string{"username": "bob", "role": "MEMBER"}, nil))
		assert.Equal(t, http.StatusNotFound,
			env.do(t, http.MethodPost, boardPath+"/members", alice, map[string]string{"username": "ghost", "role": "MEMBER"}, nil))
		assert.Equal(t, http.StatusBadRequest,
			env.do(t, http.MethodPost, boardPath+"/members", alice, map[string]string{"username": "bob", "role": "member"}, nil))
	})

	var taskID string
	t.Run("tasks keep their offset", func(t *testing.T) {
		var task struct {
			ID string `json:"id"`
		}
		body := map[string]any{"name": "Tag", "priority": 3, "expires_at": "2024-06-01T10:00:00+05:30"}
		status := env.do(t, http.MethodPost, boardPath+"/tasks", bob, body, &task)
		require.Equal(t, http.StatusCreated, status)
		taskID = task.ID

		assert.Equal(t, http.StatusForbidden,
			env.do(t, http.MethodPost, boardPath+"/tasks", victor, map[string]any{"name": "x", "priority": 1}, nil))

		var loaded boardResponse
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, boardPath, victor, nil, &loaded))
		require.Len(t, loaded.Tasks, 1)
		assert.Equal(t, "OPEN", loaded.Tasks[0].Status)
		require.NotNil(t, loaded.Tasks[0].ExpiresAt)
		assert.Equal(t, "2024-06-01T10:00:00+05:30", *loaded.Tasks[0].ExpiresAt)
		assert.Len(t, loaded.Members, 3)
	})

	t.Run("listing is limited to membership", func(t *testing.T) {
		var page struct {
			Content       []boardResponse `json:"content"`
			TotalElements int64           `json:"total_elements"`
		}
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/boards?page=0&per_page=10", bob, nil, &page))
		assert.Equal(t, int64(1), page.TotalElements)
		require.Len(t, page.Content, 1)
		assert.Equal(t, board.ID, page.Content[0].ID)
	})

	t.Run("removing a task raises an event", func(t *testing.T) {
		require.NotEmpty(t, taskID)
		require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, boardPath+"/tasks/"+taskID, bob, nil, nil))

		channel, ev := nextEvent(t, events)
		assert.Equal(t, "taskcare.board."+board.ID+".task-deleted", channel)
		assert.Equal(t, taskID, ev.TaskID)

		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, boardPath+"/tasks/"+taskID, bob, nil, nil))
	})

	t.Run("only owners delete boards", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, boardPath, bob, nil, nil))
		require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, boardPath, alice, nil, nil))

		channel, ev := nextEvent(t, events)
		assert.Equal(t, "taskcare.board."+board.ID+".board-deleted", channel)
		assert.Equal(t, board.ID, ev.BoardID)

		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, boardPath, alice, nil, nil))
	})

	t.Run("registration cannot take over an account", func(t *testing.T) {
		body := map[string]string{"username": "alice", "display_name": "Mallory", "password": "mallory-password"}
		assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/users", "", body, nil))
		assert.Equal(t, http.StatusUnauthorized,
			env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "mallory-password"}, nil))
	})

	t.Run("requests without a token are rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/boards", "", nil, nil))
	})
}

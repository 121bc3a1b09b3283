//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eventzen/apiserver/config"
	"github.com/eventzen/apiserver/internal/db"
	"github.com/eventzen/apiserver/internal/server"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const serverPort = 18080

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	setServerEnv()

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestEventLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()

	alice, err := signup(t, baseURL, fmt.Sprintf("alice_%d@example.com", suffix))
	if err != nil {
		t.Fatalf("signup alice: %v", err)
	}
	bob, err := signup(t, baseURL, fmt.Sprintf("bob_%d@example.com", suffix))
	if err != nil {
		t.Fatalf("signup bob: %v", err)
	}

	event, err := createEvent(t, baseURL, alice, "Conf2025")
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if event.ID == 0 {
		t.Fatalf("expected event ID to be set")
	}
	if event.Version != 1 {
		t.Fatalf("unexpected event version: %d", event.Version)
	}

	if status := getStatus(t, baseURL+fmt.Sprintf("/events/%d", event.ID), bob); status != http.StatusNotFound {
		t.Fatalf("expected 404 for another organizer, got %d", status)
	}

	attendee, err := registerAttendee(t, baseURL, event.ID, fmt.Sprintf("jane_%d@example.com", suffix))
	if err != nil {
		t.Fatalf("register attendee: %v", err)
	}
	if attendee.ID == 0 {
		t.Fatalf("expected attendee ID to be set")
	}

	attendees, err := listAttendees(t, baseURL, alice, event.ID)
	if err != nil {
		t.Fatalf("list attendees: %v", err)
	}
	if len(attendees) != 1 {
		t.Fatalf("expected 1 attendee, got %d", len(attendees))
	}

	if status := getStatus(t, baseURL+fmt.Sprintf("/attendees/event/%d", event.ID), bob); status != http.StatusForbidden {
		t.Fatalf("expected 403 for another organizer, got %d", status)
	}

	updated, err := updateEvent(t, baseURL, alice, event.ID, "Conf2025 v2", event.Version)
	if err != nil {
		t.Fatalf("update event: %v", err)
	}
	if updated.Version != event.Version+1 {
		t.Fatalf("unexpected version after update: %d", updated.Version)
	}

	// The first read's version is now stale.
	if _, err := updateEvent(t, baseURL, alice, event.ID, "Conf2025 v3", event.Version); err == nil {
		t.Fatalf("expected a conflict for a stale version")
	}

	if err := deleteEvent(t, baseURL, alice, event.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	if status := getStatus(t, baseURL+fmt.Sprintf("/events/%d", event.ID), alice); status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
	if status := getStatus(t, baseURL+fmt.Sprintf("/attendees/%d", attendee.ID), alice); status != http.StatusNotFound {
		t.Fatalf("expected attendees to be removed with the event, got %d", status)
	}
}

type eventResponse struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Version int64  `json:"version"`
}

type attendeeResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func signup(t *testing.T, baseURL, email string) (string, error) {
	t.Helper()

	status, _, err := postJSON(baseURL+"/auth/register", "", map[string]string{
		"email":     email,
		"password":  "testpass123!",
		"firstName": "Test",
		"lastName":  "Organizer",
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("register status %d", status)
	}

	status, body, err := postJSON(baseURL+"/auth/login", "", map[string]string{
		"email":    email,
		"password": "testpass123!",
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("login status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var parsed loginResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("missing token in login response")
	}
	return parsed.Token, nil
}

func createEvent(t *testing.T, baseURL, token, title string) (eventResponse, error) {
	t.Helper()

	status, body, err := postJSON(baseURL+"/events", token, eventPayload(title, 0))
	if err != nil {
		return eventResponse{}, err
	}
	if status != http.StatusCreated {
		return eventResponse{}, fmt.Errorf("create event status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var parsed eventResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return eventResponse{}, err
	}
	return parsed, nil
}

func updateEvent(t *testing.T, baseURL, token string, id int64, title string, version int64) (eventResponse, error) {
	t.Helper()

	status, body, err := doJSON(http.MethodPut, fmt.Sprintf("%s/events/%d", baseURL, id), token, eventPayload(title, version))
	if err != nil {
		return eventResponse{}, err
	}
	if status != http.StatusOK {
		return eventResponse{}, fmt.Errorf("update event status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var parsed eventResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return eventResponse{}, err
	}
	return parsed, nil
}

func deleteEvent(t *testing.T, baseURL, token string, id int64) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/events/%d", baseURL, id), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete event status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func registerAttendee(t *testing.T, baseURL string, eventID int64, email string) (attendeeResponse, error) {
	t.Helper()

	status, body, err := postJSON(baseURL+"/attendees/register", "", map[string]any{
		"name":    "Jane Doe",
		"email":   email,
		"eventId": eventID,
	})
	if err != nil {
		return attendeeResponse{}, err
	}
	if status != http.StatusCreated {
		return attendeeResponse{}, fmt.Errorf("register attendee status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var parsed attendeeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return attendeeResponse{}, err
	}
	return parsed, nil
}

func listAttendees(t *testing.T, baseURL, token string, eventID int64) ([]attendeeResponse, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/attendees/event/%d", baseURL, eventID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list attendees status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed []attendeeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func getStatus(t *testing.T, url, token string) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func eventPayload(title string, version int64) map[string]any {
	payload := map[string]any{
		"title":     title,
		"startDate": "2026-09-01T09:00:00Z",
		"endDate":   "2026-09-01T18:00:00Z",
		"location":  "Berlin",
		"budget":    1500,
	}
	if version != 0 {
		payload["version"] = version
	}
	return payload
}

func postJSON(url, token string, payload any) (int, []byte, error) {
	return doJSON(http.MethodPost, url, token, payload)
}

func doJSON(method, url, token string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, data, nil
}

func setServerEnv() {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "eventzen")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "eventzen_db")
	_ = os.Setenv("DB_USE_SSL", "false")
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.DSN(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsURL := "file://" + filepath.Join(root, "internal", "db", "migrations")

	migrator, err := migrate.New(migrationsURL, db.DSN(cfg))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer() (*server.Server, error) {
	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg, nil)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}

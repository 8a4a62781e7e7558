package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studyshare-backend-go/internal/config"
	httpapi "studyshare-backend-go/internal/http"
	"studyshare-backend-go/internal/migrations"
	"studyshare-backend-go/internal/services"
	"studyshare-backend-go/internal/store"
	"studyshare-backend-go/internal/store/jsonfile"
	"studyshare-backend-go/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	cleanupLogs, err := setupLogger()
	if err != nil {
		log.Printf("logger setup failed: %v", err)
	} else {
		defer cleanupLogs()
	}

	if cfg.JWTSecret == "" {
		// Tokens become invalid on restart without a configured secret.
		cfg.JWTSecret = randomSecret()
		log.Printf("JWT_SECRET not set, using a random per-process secret")
	}

	stores, err := openStores(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	server := httpapi.NewServer(cfg, stores, services.NewMetricsHub(cfg.MetricsHistorySize))
	if _, err := services.EnsureAdminAccount(stores.Admin, server.Tokens); err != nil {
		log.Fatalf("admin account: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go server.Hub.Run(ctx)
	go metricsLoop(ctx, server)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	log.Printf("shutdown complete")
}

// openStores selects the backend: Postgres when DATABASE_URL is set,
// otherwise flat JSON files under DATA_DIR.
func openStores(cfg config.Config) (store.Stores, error) {
	if cfg.DatabaseURL != "" {
		database, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return store.Stores{}, services.WrapError(err, "open postgres")
		}
		if err := migrations.Apply(database, cfg.MigrationsDir); err != nil {
			return store.Stores{}, services.WrapError(err, "apply migrations")
		}
		log.Printf("using postgres store")
		return postgres.New(database), nil
	}
	log.Printf("using jsonfile store at %s", cfg.DataDir)
	stores, err := jsonfile.Open(cfg.DataDir)
	if err != nil {
		return store.Stores{}, services.WrapError(err, "open data dir")
	}
	return stores, nil
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("random secret: %v", err)
	}
	return hex.EncodeToString(buf)
}

func setupLogger() (func(), error) {
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "storage/logs"
	}
	retentionDays := 7
	if value := os.Getenv("LOG_RETENTION_DAYS"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil && parsed > 0 {
			if parsed > 7 {
				parsed = 7
			}
			retentionDays = parsed
		}
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	currentDate := time.Now().Format("2006-01-02")
	file, err := openLogFile(logDir, currentDate)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	cleanupOldLogs(logDir, retentionDays)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				date := time.Now().Format("2006-01-02")
				mu.Lock()
				if date != currentDate {
					newFile, err := openLogFile(logDir, date)
					if err == nil {
						log.SetOutput(io.MultiWriter(os.Stdout, newFile))
						_ = file.Close()
						file = newFile
						currentDate = date
						cleanupOldLogs(logDir, retentionDays)
					}
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		mu.Lock()
		_ = file.Close()
		mu.Unlock()
	}, nil
}

func openLogFile(logDir, date string) (*os.File, error) {
	filename := filepath.Join(logDir, fmt.Sprintf("app-%s.log", date))
	return os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func cleanupOldLogs(logDir string, retentionDays int) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -(retentionDays - 1))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		datePart := strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log")
		logDate, err := time.Parse("2006-01-02", datePart)
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			_ = os.Remove(filepath.Join(logDir, name))
		}
	}
}

func metricsLoop(ctx context.Context, server *httpapi.Server) {
	ticker := time.NewTicker(time.Duration(server.Config.MetricsSampleSeconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sample, err := services.CaptureMetrics(server.Config.UploadDir)
			if err != nil {
				log.Printf("metrics capture: %v", err)
				continue
			}
			server.Hub.Broadcast(sample)
		case <-ctx.Done():
			return
		}
	}
}

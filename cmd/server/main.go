package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docextract/text-extraction-service/api"
	"github.com/docextract/text-extraction-service/internal/db"
	"github.com/docextract/text-extraction-service/internal/extract"
	"github.com/docextract/text-extraction-service/internal/logging"
	"github.com/docextract/text-extraction-service/internal/models"
	"github.com/docextract/text-extraction-service/internal/ocr"
	"github.com/docextract/text-extraction-service/internal/ocr/engines"
	"github.com/docextract/text-extraction-service/internal/ocr/tesseract"
	"github.com/docextract/text-extraction-service/internal/storage"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	config, err := models.LoadConfig(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if err := logging.Setup(config.Log, os.Stderr); err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}
	log := logrus.WithField("component", "server")

	// Initialize database connection pool
	if err := db.Init(); err != nil {
		log.Warnf("Database not available: %v", err)
		log.Info("Running without extraction history")
	} else {
		defer db.Close()
	}

	// Initialize MinIO storage
	if err := storage.Init(); err != nil {
		log.Warnf("MinIO storage not available: %v", err)
		log.Info("Extracted text will not be archived")
	}

	engine, err := engines.New(config)
	if err != nil {
		log.Fatalf("Failed to create OCR engine: %v", err)
	}
	dispatcher, err := extract.New(config, engine)
	if err != nil {
		log.Fatalf("Failed to create extraction engine: %v", err)
	}

	// Create API handler
	handler := api.NewHandler(config, dispatcher)
	router := handler.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infof("Starting Text Extraction Service v%s on %s", api.Version, addr)
	log.Infof("OCR Engine: %s", engine.Name())
	switch e := engine.(type) {
	case *tesseract.Engine:
		log.Infof("libtesseract: %s", tesseract.Version())
	case *ocr.CLIEngine:
		if v, err := e.Version(context.Background()); err == nil {
			log.Infof("tesseract binary: %s", v)
		} else {
			log.Warnf("tesseract binary not usable: %v", err)
		}
	}
	log.Infof("Database: %v", db.Pool != nil)
	log.Infof("Storage: %v", storage.Client != nil)
	log.Infof("Endpoints:")
	log.Infof("  POST   http://%s/api/document/extract-text - Extract text from PDF/JPEG/PNG", addr)
	log.Infof("  GET    http://%s/api/document/types        - Supported content types", addr)
	log.Infof("  GET    http://%s/api/extractions           - Extraction history", addr)
	log.Infof("  GET    http://%s/api/extractions/{id}      - Single extraction", addr)
	log.Infof("  DELETE http://%s/api/extractions/{id}      - Delete extraction", addr)
	log.Infof("  GET    http://%s/health                    - Health check", addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Shutdown failed: %v", err)
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/docextract/text-extraction-service/api"
	"github.com/docextract/text-extraction-service/internal/extract"
	"github.com/docextract/text-extraction-service/internal/logging"
	"github.com/docextract/text-extraction-service/internal/mcptools"
	"github.com/docextract/text-extraction-service/internal/models"
	"github.com/docextract/text-extraction-service/internal/ocr/engines"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	config, err := models.LoadConfig(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	// stdout carries the MCP protocol
	if err := logging.Setup(config.Log, os.Stderr); err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}
	log := logrus.WithField("component", "mcp")

	engine, err := engines.New(config)
	if err != nil {
		log.Fatalf("Failed to create OCR engine: %v", err)
	}
	dispatcher, err := extract.New(config, engine)
	if err != nil {
		log.Fatalf("Failed to create extraction engine: %v", err)
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "text-extraction-service", Version: api.Version}, nil)
	mcptools.New(dispatcher, config.MaxUploadSize).Register(server)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infof("Serving MCP over stdio (engine: %s)", engine.Name())
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Fatalf("MCP server failed: %v", err)
	}
}

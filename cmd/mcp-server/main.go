package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/config"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/db"
)

func newLogger(service string) (*zap.Logger, error) {
	// stdout carries the MCP protocol, so logs go to stderr
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.NameKey = "logger"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.StacktraceKey = "stacktrace"

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(service).With(zap.String("service", service)), nil
}

func main() {
	appCfg := config.Load()
	service := appCfg.ServiceName + "-mcp"

	logger, err := newLogger(service)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	pg, err := db.InitPostgres(appCfg.PostgresDSN, appCfg.DBMaxOpenConns, appCfg.DBMaxIdleConns, appCfg.DBConnMaxLifetime, appCfg.DBConnMaxIdleTime)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    service,
		Version: "1.0.0",
	}, nil)
	(&AdsServer{ads: pg, logger: logger}).register(server)

	var logBuffer bytes.Buffer
	transport := &mcp.LoggingTransport{
		Transport: &mcp.StdioTransport{},
		Writer:    &logBuffer,
	}

	logger.Info("MCP server running via stdio")
	if err := server.Run(context.Background(), transport); err != nil {
		logger.Fatal("Server error", zap.Error(err), zap.String("mcp_logs", logBuffer.String()))
	}
}

// Package main is the entry point for the lekha Lambda function.
//
// It serves the stateless generation pipeline. Sessions and speech capture
// need a long-lived process and are only offered by the lekha daemon.
package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/nadzzz/lekha/internal/app"
	"github.com/nadzzz/lekha/internal/config"
)

func main() {
	cfg, err := config.Load(os.Getenv("LEKHA_CONFIG"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	config.SetupLogging(cfg.Logging)

	pipeline, err := app.NewPipeline(cfg, nil)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	lambda.Start(newHandler(pipeline.Dispatcher).handleRequest)
}

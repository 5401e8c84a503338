package main

import (
	"flag"
	"fmt"
	"os"

	"GameStore/internal/game"
	"GameStore/pkg/bootstrap"

	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "configs/config.game.yaml", "path to config yaml")
	flag.Parse()

	app, err := bootstrap.InitAll(*cfgPath, bootstrap.Options{
		Name:     "game-service",
		UseDB:    true,
		Schema:   game.Schema,
		UseCache: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap init failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	engine := NewRouter(app)
	for _, ri := range engine.Routes() {
		zap.L().Debug("route", zap.String("method", ri.Method), zap.String("path", ri.Path))
	}
	if err := app.Run(engine); err != nil {
		zap.L().Error("game service stopped", zap.Error(err))
	}
}

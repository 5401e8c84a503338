package main

import (
	"flag"
	"fmt"
	"os"

	"GameStore/internal/user"
	"GameStore/pkg/bootstrap"

	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "configs/config.user.yaml", "path to config yaml")
	flag.Parse()

	app, err := bootstrap.InitAll(*cfgPath, bootstrap.Options{
		Name:     "user-service",
		UseDB:    true,
		Schema:   user.Schema,
		UseCache: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap init failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(NewRouter(app)); err != nil {
		zap.L().Error("user service stopped", zap.Error(err))
	}
}

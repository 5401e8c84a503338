package main

import (
	"flag"
	"fmt"
	"os"

	"GameStore/pkg/bootstrap"

	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "configs/config.gateway.yaml", "path to gateway config yaml")
	flag.Parse()

	app, err := bootstrap.InitAll(*cfgPath, bootstrap.Options{Name: "api-gateway"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if app.Registry == nil {
		zap.L().Warn("registry not configured, every proxied request will answer 503")
	}
	if err := app.Run(InitRouter(app)); err != nil {
		zap.L().Error("gateway stopped", zap.Error(err))
	}
}

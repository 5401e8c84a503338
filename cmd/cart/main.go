package main

import (
	"flag"
	"fmt"
	"os"

	"GameStore/internal/cart"
	"GameStore/pkg/bootstrap"

	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "configs/config.cart.yaml", "path to config yaml")
	flag.Parse()

	app, err := bootstrap.InitAll(*cfgPath, bootstrap.Options{
		Name:   "cart-service",
		UseDB:  true,
		Schema: cart.Schema,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap init failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(NewRouter(app)); err != nil {
		zap.L().Error("cart service stopped", zap.Error(err))
	}
}

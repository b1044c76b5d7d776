package main

import (
	stdLog "log"
	"time"

	"github.com/bookstack-dev/catalog-service/catalog/app"
	"github.com/bookstack-dev/catalog-service/catalog/config"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// @title           Book Catalog API
// @version         1.0
// @description     CRUD and search over the book catalog.
// @BasePath        /api/v1
// @securityDefinitions.basic BasicAuth
func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Println("no .env file, using process environment")
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithWriteTimeout(time.Minute),
	)

	app.Run(cfg)
}

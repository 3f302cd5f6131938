package main

import (
	"os"

	"github.com/DRSN-tech/respondr-media/internal/app"
	config "github.com/DRSN-tech/respondr-media/internal/cfg"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
)

// @title						RESPONDR Media API
// @version					1.0
// @description				Сжатие, хранение и регистрация изображений инцидентов.
// @BasePath					/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		log.Errorf(err, "application stopped with error")
		os.Exit(1)
	}
}

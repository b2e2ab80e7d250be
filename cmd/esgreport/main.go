// Основной пакет сервиса редактора ESG отчетов. Читает конфигурацию, подключается к базе данных,
// выполняет миграцию моделей и запускает HTTP сервер редактора.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/config"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dao"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/gormlogger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var version string = "DEV"

// Пример запуска: go run main.go --noMigration --trace
func main() {
	noTranslateFlag := flag.Bool("noTranslate", false, "Turn off BD errors translate")
	paramQueries := flag.Bool("paramQueries", true, "Mask queries params in log")
	noMigration := flag.Bool("noMigration", false, "Turn off DB migration")
	trace := flag.Bool("trace", false, "Verbose logs and sql trace")
	flag.Parse()

	PrintBanner()

	cfg := config.ReadConfig()

	if *trace || cfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Set prod log format
	if version != "DEV" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
	}

	slog.Info("ESG report editor start.")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: cfg.DatabaseDSN,
	}), &gorm.Config{
		TranslateError: !*noTranslateFlag,
		Logger:         gormlogger.NewGormLogger(slog.Default(), time.Second*4, *paramQueries),
	})
	if err != nil {
		slog.Error("Fail init DB connection", "err", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Fail set settings to conn pool", "err", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(time.Minute * 15)

	if !*noMigration {
		slog.Info("Migrate models")
		if err := dao.Migrate(db); err != nil {
			slog.Error("Migrate models", "err", err)
			os.Exit(1)
		}
	}

	esgreport.Server(db, cfg, version)
}

// PrintBanner выводит заголовок сервиса с версией.
func PrintBanner() {
	banner := `
 ___ ___  ___   ___                    _
| __/ __|/ __| | _ \___ _ __  ___ _ _| |_
| _|\__ \ (_ | |   / -_) '_ \/ _ \ '_|  _|
|___|___/\___| |_|_\___| .__/\___/_|  \__| %s
                       |_|
Block editor for sustainability reports
-----------------------------------------------
`
	colorReset := "\033[0m"
	colorYellow := "\033[33m"

	formattedVersion := version
	if version == "DEV" {
		formattedVersion = colorYellow + version + colorReset
	}

	fmt.Printf(banner, formattedVersion)
}

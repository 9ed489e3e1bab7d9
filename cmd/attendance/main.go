package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coaching-attendance/internal/api"
	"coaching-attendance/internal/config"
	"coaching-attendance/internal/handler"
	"coaching-attendance/internal/repository"
	"coaching-attendance/internal/service"
	"coaching-attendance/pkg/telegram"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetConfig()
	logrus.Info("Config initialized...")

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		logrus.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatal("Failed to get database instance:", err)
	}

	studentRepo, err := repository.NewGormStudentRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create student repository")
	}

	attendanceRepo, err := repository.NewGormAttendanceRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create attendance repository")
	}

	store := repository.NewRecordStore(studentRepo, attendanceRepo)
	engine := service.NewReconciliationEngine(store, cfg.RecomputeWorkers)
	controller := service.NewMutationController(engine)
	attendanceService := service.NewAttendanceService(store, studentRepo, controller)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	holidayService := service.NewHolidayService(attendanceService)
	if cfg.HolidaysFile != "" {
		if err := holidayService.Load(cfg.HolidaysFile); err != nil {
			logrus.WithError(err).Error("Failed to load holiday calendar")
		} else {
			applyHolidays(ctx, holidayService, attendanceService)
		}
	}

	var scheduler *service.RecomputeScheduler
	if cfg.RecomputeCron != "" {
		scheduler, err = service.NewRecomputeScheduler(engine, studentRepo, cfg.RecomputeCron)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to create recompute scheduler")
		}
		scheduler.WithHolidays(holidayService).Start()
	}

	app := api.NewApp(api.NewAttendanceController(attendanceService))
	go func() {
		logrus.Infof("HTTP API listening on %s", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	var client *telegram.Client
	if cfg.BotEnabled() {
		client, err = telegram.NewClient(cfg.TelegramToken, cfg.TelegramDebug)
		if err != nil {
			logrus.Fatal("Failed to create Telegram client:", err)
		}
		logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)

		botHandler := handler.NewHandler(client, attendanceService, holidayService, cfg)
		updates := client.Bot.GetUpdatesChan(client.UpdateConfig)
		go botHandler.HandleUpdates(ctx, updates)
	} else {
		logrus.Info("TELEGRAM_BOT_TOKEN is not set, bot disabled")
	}

	// Обработка сигналов для graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	logrus.Info("Attendance service started. Press Ctrl+C to stop.")
	<-stop

	cancel()
	if client != nil {
		client.Stop()
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logrus.Infof("Error stopping HTTP server: %v", err)
	}

	if err := sqlDB.Close(); err != nil {
		logrus.Infof("Error closing database: %v", err)
	}

	logrus.Info("Attendance service stopped gracefully")
}

func openDatabase(cfg *config.AppConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true, // SQLite ограничения
	}

	if cfg.DatabaseDriver == "postgres" {
		return gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite не выдерживает параллельных записей из пула
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// applyHolidays отмечает во всех классах наступившие праздники календаря.
// Дни с отметками преподавателя не трогаются, будущие даты отмечает ночное задание.
func applyHolidays(ctx context.Context, holidays *service.HolidayService, attendance *service.AttendanceService) {
	classes, err := attendance.Classes(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list classes for holiday import")
		return
	}

	for _, classID := range classes {
		report, err := holidays.ApplyCalendar(ctx, classID)
		if err != nil {
			logrus.WithError(err).WithField("class_id", classID).Error("Failed to apply holidays")
			continue
		}
		logrus.WithFields(logrus.Fields{
			"class_id": classID,
			"applied":  report.Applied,
			"marked":   report.Marked,
			"future":   report.Future,
		}).Info("Holiday calendar applied")
	}
}

package main

import (
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"meetingrooms/internal/config"
	"meetingrooms/internal/database"
	"meetingrooms/internal/domain"
	"meetingrooms/internal/domain/auth"
	"meetingrooms/internal/logger"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config.yaml")
	reset := flag.Bool("reset", false, "delete existing rooms, reservations and users first")
	flag.Parse()

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.Connect(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("DB connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("migrate failed", zap.Error(err))
	}

	if *reset {
		zlog.Info("cleaning old data")
		for _, table := range []string{"reservations", "rooms", "users"} {
			if err := db.Exec("DELETE FROM " + table).Error; err != nil {
				zlog.Fatal("cleanup failed", zap.String("table", table), zap.Error(err))
			}
		}
	}

	if err := seed(db); err != nil {
		zlog.Fatal("seed failed", zap.Error(err))
	}
	zlog.Info("seed completed")
}

func seed(db *gorm.DB) error {
	hash, err := auth.HashPassword("admin123")
	if err != nil {
		return err
	}
	admin := domain.User{Email: "admin@meetingrooms.local", Name: "Admin", PasswordHash: hash, IsActive: true}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&admin).Error; err != nil {
		return err
	}

	capacity := func(n int) *int { return &n }
	rooms := []domain.Room{
		{Name: "Sala Azul", Location: "1º andar", Capacity: capacity(6), Description: "TV e quadro branco", IsActive: true},
		{Name: "Sala Verde", Location: "1º andar", Capacity: capacity(10), Description: "Videoconferência", IsActive: true},
		{Name: "Auditório", Location: "Térreo", Capacity: capacity(40), IsActive: true},
		{Name: "Sala Amarela", Location: "2º andar", Capacity: capacity(4), Description: "Em reforma", IsActive: false},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rooms).Error; err != nil {
		return err
	}

	var first domain.Room
	if err := db.Where("name = ?", "Sala Azul").First(&first).Error; err != nil {
		return err
	}

	var existing int64
	if err := db.Model(&domain.Reservation{}).Where("room_id = ?", first.ID).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	tomorrow := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	reservations := []domain.Reservation{
		{RoomID: first.ID, Owner: "Equipe de Produto", StartAt: tomorrow.Add(9 * time.Hour), EndAt: tomorrow.Add(10 * time.Hour), Status: domain.ReservationActive, Description: "Planning semanal"},
		{RoomID: first.ID, Owner: "Financeiro", StartAt: tomorrow.Add(10 * time.Hour), EndAt: tomorrow.Add(11*time.Hour + 30*time.Minute), Status: domain.ReservationActive, CoffeeNeeded: true, CoffeeQuantity: capacity(5)},
	}
	return db.Create(&reservations).Error
}

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/civiclink/grievance-management/internal/auth"
	userDatamodel "github.com/civiclink/grievance-management/internal/core/datamodel/user"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with demo accounts for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"complaint_comments", "complaint_attachments", "complaints", "complaint_refs", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		accounts := []struct {
			Username string
			Email    string
			Password string
			Role     string
		}{
			{"admin", "admin@civiclink.example", "Admin123", "super-admin"},
			{"staff_jo", "jo@civiclink.example", "Staff123", "staff"},
			{"citizen_ana", "ana@civiclink.example", "Citizen123", "user"},
		}

		for _, a := range accounts {
			var count int64
			if err := db.Model(&userDatamodel.User{}).Where("email = ?", a.Email).Count(&count).Error; err != nil {
				log.Fatalf("failed to check for %s: %v", a.Email, err)
			}
			if count > 0 {
				fmt.Printf("%s already exists, skipping\n", a.Email)
				continue
			}

			hash, err := auth.HashPassword(a.Password, cfg.Security.BCryptCost)
			if err != nil {
				log.Fatalf("failed to hash password for %s: %v", a.Email, err)
			}

			now := time.Now()
			row := userDatamodel.User{
				Username:     a.Username,
				Email:        a.Email,
				PasswordHash: hash,
				Role:         a.Role,
				UserClass:    string(auth.DeriveClass(a.Role)),
				IsActive:     true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := db.Create(&row).Error; err != nil {
				log.Fatalf("failed to seed %s: %v", a.Email, err)
			}
			fmt.Printf("Seeded %s account: %s\n", row.UserClass, a.Email)
		}

		fmt.Println("Seeding complete")
	},
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tourista/internal/config"
	"tourista/internal/db"
	"tourista/internal/model"
	"tourista/internal/repository"
)

// SeedUser carries a plaintext password, unlike the model.
type SeedUser struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Photo    string     `json:"photo"`
	Role     model.Role `json:"role"`
	Password string     `json:"password"`
}

func main() {
	toursPath := flag.String("tours", "", "path to a tours JSON file")
	usersPath := flag.String("users", "", "path to a users JSON file")
	wipe := flag.Bool("delete", false, "delete existing tours, reviews, and users first")
	flag.Parse()

	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Tour{}, &model.Review{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()

	if *wipe {
		log.Println("Deleting existing data...")
		for _, stmt := range []string{
			"DELETE FROM reviews",
			"DELETE FROM tour_guides",
			"DELETE FROM tours",
			"DELETE FROM users",
		} {
			if err := gormDB.WithContext(ctx).Exec(stmt).Error; err != nil {
				log.Fatalf("Failed to delete existing data: %v", err)
			}
		}
		log.Println("Existing data deleted")
	}

	if *usersPath != "" {
		created, err := seedUsers(ctx, gormDB, *usersPath)
		if err != nil {
			log.Fatalf("Failed to seed users: %v", err)
		}
		log.Printf("Seeded %d users", created)
	}

	if *toursPath != "" {
		created, updated, err := seedTours(ctx, repository.NewTourRepository(gormDB), *toursPath)
		if err != nil {
			log.Fatalf("Failed to seed tours: %v", err)
		}
		log.Printf("Seeded tours: %d created, %d updated", created, updated)
	}

	log.Println("Seed completed successfully!")
}

func seedUsers(ctx context.Context, gormDB *gorm.DB, path string) (int, error) {
	var seeds []SeedUser
	if err := readJSON(path, &seeds); err != nil {
		return 0, err
	}

	userRepo := repository.NewUserRepository(gormDB)
	created := 0
	for _, s := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), 12)
		if err != nil {
			return created, fmt.Errorf("hashing password for %s: %w", s.Email, err)
		}

		user := model.User{
			Name:         s.Name,
			Email:        s.Email,
			Photo:        s.Photo,
			Role:         s.Role,
			PasswordHash: string(hash),
			Active:       true,
		}
		if user.Role == "" {
			user.Role = model.RoleUser
		}

		if err := userRepo.Create(ctx, &user); err != nil {
			return created, fmt.Errorf("creating user %s: %w", s.Email, err)
		}
		created++
	}
	return created, nil
}

func seedTours(ctx context.Context, repo repository.TourRepository, path string) (created int, updated int, err error) {
	var tours []model.Tour
	if err := readJSON(path, &tours); err != nil {
		return 0, 0, err
	}

	for i := range tours {
		tour := &tours[i]

		existing, err := repo.FindBySlug(ctx, model.Slugify(tour.Name))
		if err != nil && err != gorm.ErrRecordNotFound {
			return created, updated, fmt.Errorf("checking tour %q: %w", tour.Name, err)
		}

		if existing != nil {
			tour.ID = existing.ID
			if err := repo.Save(ctx, tour); err != nil {
				return created, updated, fmt.Errorf("updating tour %q: %w", tour.Name, err)
			}
			updated++
		} else {
			if err := repo.Create(ctx, tour); err != nil {
				return created, updated, fmt.Errorf("creating tour %q: %w", tour.Name, err)
			}
			created++
		}
	}
	return created, updated, nil
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

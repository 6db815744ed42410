package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Tesseract-Nexus/go-shared/secrets"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"product-import-service/internal/importer"
	"product-import-service/internal/models"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisURL string

	// Server
	Port        string
	Environment string

	// Import
	UploadDir        string
	ProductImagePath string
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))

	return &Config{
		// Database - fetch password from GCP Secret Manager if enabled
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: secrets.GetDBPassword(),
		DBName:     getEnv("DB_NAME", "catalog_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("PORT", "8087"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Import
		UploadDir:        getEnv("IMPORT_UPLOAD_DIR", "/tmp/product_imports"),
		ProductImagePath: getEnv("PRODUCT_IMAGE_PATH", "/tmp/product_images"),
	}
}

// LoadImportSettings builds the default run settings, with env overrides for
// the flags operators actually tune per deployment.
func LoadImportSettings(cfg *Config) importer.Settings {
	settings := importer.DefaultSettings()
	settings.ProductImagePath = cfg.ProductImagePath

	if v := os.Getenv("IMPORT_TRANSACTION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.Transaction = b
		}
	}
	if v := os.Getenv("IMPORT_CREATE_VARIANTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.CreateVariants = b
		}
	}
	if v := os.Getenv("IMPORT_VARIANT_COMPARATOR_FIELD"); v != "" {
		settings.VariantComparatorField = v
	}
	if v := os.Getenv("IMPORT_ROWS_TO_SKIP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.RowsToSkip = n
		}
	}
	if v := os.Getenv("IMPORT_FIRST_ROW_IS_HEADINGS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.FirstRowIsHeadings = b
		}
	}
	if v := os.Getenv("IMPORT_CREATE_MISSING_TAXONOMIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.CreateMissingTaxonomies = b
		}
	}
	if v := os.Getenv("IMPORT_TAXONOMY_FIELDS"); v != "" {
		settings.TaxonomyFields = splitList(v)
	}
	if v := os.Getenv("IMPORT_IMAGE_FIELDS"); v != "" {
		settings.ImageFields = splitList(v)
	}
	if v := os.Getenv("IMPORT_MULTI_DOMAIN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.MultiDomainImporting = b
		}
	}
	if v := os.Getenv("IMPORT_STORE_FIELD"); v != "" {
		settings.StoreField = v
	}
	if v := os.Getenv("IMPORT_DESTROY_ORIGINAL_PRODUCTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.DestroyOriginalProducts = b
		}
	}
	if v := os.Getenv("IMPORT_LOG_TO"); v != "" {
		settings.LogTo = v
	}

	return settings
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate models to keep schema up to date
	// This will add missing columns but won't delete existing columns
	log.Println("Running auto-migrations...")
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Variant{},
		&models.OptionType{},
		&models.OptionValue{},
		&models.Taxonomy{},
		&models.Taxon{},
		&models.Image{},
		&models.Property{},
		&models.ProductProperty{},
		&models.Store{},
		&models.ImportJob{},
	); err != nil {
		// Ignore errors about dropping non-existent constraints; constraint
		// naming conventions have changed across schema versions
		errStr := err.Error()
		if strings.Contains(errStr, "does not exist") && strings.Contains(errStr, "constraint") {
			log.Printf("Note: Migration constraint warning (safe to ignore): %v", err)
		} else {
			return nil, fmt.Errorf("failed to run auto-migrations: %w", err)
		}
	}
	log.Println("Auto-migrations completed successfully")

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

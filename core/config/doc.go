// Package config provides configuration management for the sighting engine.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file (loaded with godotenv).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP port, JWT secret and moderator roles
//   - Database: MySQL (or SQLite) connection details
//   - Storage: S3/MinIO credentials, bucket and public media URL
//   - Log: Logging level and format
//   - Location: proximity threshold and Nominatim settings
//   - Observation: identifier allocation settings
//   - Sync: iNaturalist import and scheduler settings
//
// Every leaf field carries a `default` tag; nested keys map to environment
// variables by replacing dots with underscores (sync.page_delay -> SYNC_PAGE_DELAY).
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config

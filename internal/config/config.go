package config

import "time"

type Config struct {
	Addr          string
	DataDir       string
	DBBackend     string
	DatabaseURL   string
	LogFormat     string
	SessionSecret string
	SessionTTL    time.Duration
	LoginTokenTTL time.Duration
	FolderKeyMode string

	StorageBackend string
	Bucket         string
	PublicBaseURL  string

	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	SeedCategories []string
}

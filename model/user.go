package model

type User struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	AvatarURL    string

	// Per-user quota ceiling in bytes, 0 means the configured default
	QuotaOverride int64
}

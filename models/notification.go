package models

import "gorm.io/gorm"

// NotificationSetting holds a user's per-party-type alert preferences.
// Every type defaults to enabled; a missing row means the same thing.
type NotificationSetting struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	Smoke  bool `gorm:"default:true" json:"smoke"`
	Meal   bool `gorm:"default:true" json:"meal"`
	Coffee bool `gorm:"default:true" json:"coffee"`
}

// EnsureDefaultNotificationSettings creates the all-enabled settings row for
// a new user if it does not exist yet.
func EnsureDefaultNotificationSettings(db *gorm.DB, userID uint) error {
	setting := NotificationSetting{
		UserID: userID,
		Smoke:  true,
		Meal:   true,
		Coffee: true,
	}
	return db.FirstOrCreate(&setting, "user_id = ?", userID).Error
}

package controller

import (
	"log"

	"dambabgo/models"
	"dambabgo/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SettingsController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewSettingsController(db *gorm.DB, logger *log.Logger) *SettingsController {
	return &SettingsController{
		DB:     db,
		Logger: logger,
	}
}

type NotificationSettingsRequest struct {
	Smoke  *bool `json:"smoke" validate:"required"`
	Meal   *bool `json:"meal" validate:"required"`
	Coffee *bool `json:"coffee" validate:"required"`
}

// GetNotificationSettings returns the caller's per-type alert preferences,
// defaulting everything to enabled when no row exists.
func (sc *SettingsController) GetNotificationSettings(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var setting models.NotificationSetting
	if err := sc.DB.Where("user_id = ?", user.ID).First(&setting).Error; err != nil {
		return c.JSON(fiber.Map{
			"smoke":  true,
			"meal":   true,
			"coffee": true,
		})
	}

	return c.JSON(fiber.Map{
		"smoke":  setting.Smoke,
		"meal":   setting.Meal,
		"coffee": setting.Coffee,
	})
}

// UpdateNotificationSettings persists new preferences. Live party streams
// pick the change up on their next notification evaluation.
func (sc *SettingsController) UpdateNotificationSettings(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req NotificationSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	setting := models.NotificationSetting{UserID: user.ID}
	if err := sc.DB.Where("user_id = ?", user.ID).FirstOrCreate(&setting).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load notification settings",
		})
	}

	if err := sc.DB.Model(&setting).Updates(map[string]interface{}{
		"smoke":  *req.Smoke,
		"meal":   *req.Meal,
		"coffee": *req.Coffee,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update notification settings",
		})
	}

	return c.JSON(fiber.Map{
		"smoke":  *req.Smoke,
		"meal":   *req.Meal,
		"coffee": *req.Coffee,
	})
}

package controller

import (
	"log"

	"dambabgo/utils"

	"github.com/gofiber/fiber/v2"
)

type RecommendController struct {
	Logger *log.Logger
}

func NewRecommendController(logger *log.Logger) *RecommendController {
	return &RecommendController{
		Logger: logger,
	}
}

// GetMenuRecommendations proxies the menu suggestion call. It always answers
// with a usable list; upstream failures fall back to fixed menus.
func (rc *RecommendController) GetMenuRecommendations(c *fiber.Ctx) error {
	mealContext := c.Query("context")
	weather := c.Query("weather")

	menus := utils.GetMenuRecommendation(c.Context(), mealContext, weather)

	return c.JSON(fiber.Map{
		"menus": menus,
	})
}

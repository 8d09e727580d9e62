package controller

import (
	"errors"
	"log"

	"dambabgo/config"
	"dambabgo/models"
	"dambabgo/notifier"
	"dambabgo/party"
	"dambabgo/store"
	"dambabgo/utils"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// errNotCreator is the controller-level ownership check on close. The
// transition itself stays permissive; only the HTTP surface restricts it.
var errNotCreator = errors.New("only the creator may close a party")

type PartyController struct {
	Store  *store.Store
	Logger *log.Logger
}

func NewPartyController(s *store.Store, logger *log.Logger) *PartyController {
	return &PartyController{
		Store:  s,
		Logger: logger,
	}
}

type CreatePartyRequest struct {
	Type        string `json:"type" validate:"required,oneof=COFFEE SMOKE MEAL"`
	Location    string `json:"location" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=300"`
	MeetTime    int64  `json:"meet_time"`

	// MEAL only
	MealMode        string   `json:"meal_mode" validate:"omitempty,oneof=FIXED VOTE"`
	FixedMenu       string   `json:"fixed_menu" validate:"max=100"`
	VoteOptionNames []string `json:"vote_options" validate:"max=20,dive,min=1,max=50"`
}

// CreateParty opens a new party with the caller auto-joined as creator.
func (pc *PartyController) CreateParty(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreatePartyRequest
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

	if req.Type == models.PartyTypeMeal && req.MealMode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "meal_mode is required for meal parties",
		})
	}
	if req.MealMode == models.MealModeVote && len(req.VoteOptionNames) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "vote_options are required for vote meals",
		})
	}

	draft := party.NewParty(party.CreateInput{
		Type:            req.Type,
		Location:        req.Location,
		Description:     req.Description,
		MeetTimeMs:      req.MeetTime,
		MealMode:        req.MealMode,
		FixedMenu:       req.FixedMenu,
		VoteOptionNames: req.VoteOptionNames,
	}, user)

	id, err := pc.Store.Create(draft)
	if err != nil {
		pc.captureWriteFailure("create_party", user, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create party",
		})
	}

	var created models.Party
	if err := pc.Store.DB.First(&created, id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load created party",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetParties returns all parties in display order: OPEN first, newest first.
func (pc *PartyController) GetParties(c *fiber.Ctx) error {
	snapshot, err := pc.Store.Snapshot()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch parties",
		})
	}
	return c.JSON(party.SortForDisplay(snapshot))
}

// GetParty returns a single party.
func (pc *PartyController) GetParty(c *fiber.Ctx) error {
	var p models.Party
	if err := pc.Store.DB.First(&p, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Party not found",
		})
	}
	return c.JSON(p)
}

func (pc *PartyController) JoinParty(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	partyID := utils.ParseUint(c.Params("id"))

	err := pc.Store.Apply(partyID, func(p *models.Party) (party.Delta, error) {
		return party.Join(p, user.UID, user.DisplayName)
	})
	return pc.commandResult(c, user, "join_party", err)
}

func (pc *PartyController) LeaveParty(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	partyID := utils.ParseUint(c.Params("id"))

	err := pc.Store.Apply(partyID, func(p *models.Party) (party.Delta, error) {
		return party.Leave(p, user.UID)
	})
	return pc.commandResult(c, user, "leave_party", err)
}

// CloseParty is restricted to the creator at this layer; see errNotCreator.
func (pc *PartyController) CloseParty(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	partyID := utils.ParseUint(c.Params("id"))

	err := pc.Store.Apply(partyID, func(p *models.Party) (party.Delta, error) {
		if p.CreatorID != user.UID {
			return nil, errNotCreator
		}
		return party.Close(p)
	})
	return pc.commandResult(c, user, "close_party", err)
}

type VoteRequest struct {
	OptionID string `json:"option_id" validate:"required"`
}

func (pc *PartyController) VoteOption(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	partyID := utils.ParseUint(c.Params("id"))

	var req VoteRequest
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

	err := pc.Store.Apply(partyID, func(p *models.Party) (party.Delta, error) {
		return party.Vote(p, req.OptionID, user.UID)
	})
	return pc.commandResult(c, user, "vote_option", err)
}

type AddOptionRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

func (pc *PartyController) AddVoteOption(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	partyID := utils.ParseUint(c.Params("id"))

	var req AddOptionRequest
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

	err := pc.Store.Apply(partyID, func(p *models.Party) (party.Delta, error) {
		return party.AddOption(p, req.Name)
	})
	return pc.commandResult(c, user, "add_vote_option", err)
}

type OrderRequest struct {
	Menu string `json:"menu" validate:"required,min=1,max=100"`
}

// UpdateOrder sets the caller's own order; the target uid always comes from
// the session, never the request.
func (pc *PartyController) UpdateOrder(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	partyID := utils.ParseUint(c.Params("id"))

	var req OrderRequest
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

	err := pc.Store.Apply(partyID, func(p *models.Party) (party.Delta, error) {
		return party.SetOrder(p, user.UID, req.Menu)
	})
	return pc.commandResult(c, user, "update_order", err)
}

// commandResult maps command outcomes to HTTP responses. Precondition
// failures are client errors; anything else is a store write failure
// surfaced only to the initiating caller.
func (pc *PartyController) commandResult(c *fiber.Ctx, user *models.User, command string, err error) error {
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"message": "ok"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Party not found",
		})
	case errors.Is(err, party.ErrPartyClosed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Party is already closed",
		})
	case errors.Is(err, party.ErrNotVoteMeal):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Party has no menu vote",
		})
	case errors.Is(err, party.ErrUnknownOption):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Vote option does not exist",
		})
	case errors.Is(err, errNotCreator):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the creator may close this party",
		})
	default:
		pc.captureWriteFailure(command, user, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to apply command",
		})
	}
}

func (pc *PartyController) captureWriteFailure(command string, user *models.User, err error) {
	logrus.WithFields(logrus.Fields{
		"command": command,
		"user_id": user.ID,
	}).Errorf("Store write failed: %v", err)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("command", command)
		scope.SetUser(sentry.User{ID: user.UID})
		sentry.CaptureException(err)
	})
}

// loadPrefs reads the user's current notification preferences. The row is
// the single mutable cell long-lived subscriptions read through; a missing
// or unreadable row means all types enabled.
func (pc *PartyController) loadPrefs(userID uint) notifier.Prefs {
	var setting models.NotificationSetting
	if err := config.DB.Where("user_id = ?", userID).First(&setting).Error; err != nil {
		return notifier.Prefs{Smoke: true, Meal: true, Coffee: true}
	}
	return notifier.Prefs{
		Smoke:  setting.Smoke,
		Meal:   setting.Meal,
		Coffee: setting.Coffee,
	}
}

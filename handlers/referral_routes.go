package handlers

import (
	"encoding/json"
	"errors"

	"referral-credit-system/middleware"
	"referral-credit-system/models"
	"referral-credit-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type registerRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	ReferralCode string `json:"referralCode"`
}

type purchaseRequest struct {
	ProductName string          `json:"productName"`
	Amount      decimal.Decimal `json:"amount"`
}

// purchaseView renders amount as a JSON number, not decimal's quoted string.
type purchaseView struct {
	ID              string      `json:"id"`
	ProductName     string      `json:"productName"`
	Amount          json.Number `json:"amount"`
	IsFirstPurchase bool        `json:"isFirstPurchase"`
}

// SetupReferralRoutes mounts the account, purchase and dashboard endpoints.
// The gateway forwards /api/v1/referral/<path> to <path>.
func SetupReferralRoutes(app *fiber.App, svc *services.ReferralService, logger *zap.Logger) {
	app.Post("/auth/register", func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		acct, err := svc.RegisterAccount(c.UserContext(), services.RegisterInput{
			Email:        req.Email,
			Name:         req.Name,
			ReferralCode: req.ReferralCode,
		})
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": acct})
	})

	secured := app.Group("/", middleware.UserContextMiddleware(logger))

	secured.Post("/purchases/simulate", func(c *fiber.Ctx) error {
		var req purchaseRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		res, err := svc.SettlePurchase(c.UserContext(), middleware.UserID(c), req.ProductName, req.Amount)
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"purchase": purchaseView{
				ID:              res.Purchase.ID,
				ProductName:     res.Purchase.ProductName,
				Amount:          json.Number(res.Purchase.Amount.String()),
				IsFirstPurchase: res.IsFirstPurchase,
			},
			"creditsEarned": res.CreditsEarned,
			"totalCredits":  res.TotalCredits,
		})
	})

	secured.Get("/referrals/my-referrals", func(c *fiber.Ctx) error {
		refs, err := svc.ListReferrals(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(fiber.Map{"referrals": refs, "count": len(refs)})
	})

	secured.Get("/user/dashboard", func(c *fiber.Ctx) error {
		dash, err := svc.GetDashboardStats(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(dash)
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrTransactionAbort):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("[HTTP] request failed", zap.String("path", c.Path()), zap.Error(err))
		if status == fiber.StatusInternalServerError {
			return c.Status(status).JSON(fiber.Map{"error": "internal error"})
		}
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

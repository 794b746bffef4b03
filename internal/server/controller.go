package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/telegram"
	"github.com/nguyentranbao-ct/ehbot/internal/usecase"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger/log"
)

type Controller interface {
	ReceiveUpdate(c echo.Context) error
	Health(c echo.Context) error
}

type controller struct {
	updates usecase.UpdateUsecase
}

func NewController(updates usecase.UpdateUsecase) Controller {
	return &controller{
		updates: updates,
	}
}

// ReceiveUpdate handles one webhook delivery. The platform retries on
// non-2xx, so handling failures inside the update still answer 200.
func (h *controller) ReceiveUpdate(c echo.Context) error {
	var upd telegram.Update
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid update body")
	}
	if err := c.Validate(upd); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.updates.ProcessUpdates(ctx, []models.Update{upd.ToModel()}); err != nil {
		return err
	}
	log.Debugw(ctx, "webhook update processed", "update_id", upd.UpdateID)
	return c.NoContent(http.StatusOK)
}

func (h *controller) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

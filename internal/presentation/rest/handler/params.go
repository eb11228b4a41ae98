package handler

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"skillcoins/internal/domain/player"
	"skillcoins/internal/domain/session"
)

// playerIDParam パスのplayer_idを解釈する
func playerIDParam(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("player_id")
	id, err := player.ParseID(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", err, raw)
	}
	return id, nil
}

// wizardKindParam パスのkindを解釈する
func wizardKindParam(c echo.Context) (session.WizardKind, error) {
	return session.NewWizardKind(c.Param("kind"))
}

package http

import (
	"net/http"

	authuc "budget-portal/internal/usecase/auth"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	uc  *authuc.Usecase
	log zerolog.Logger
}

func NewAuthHandler(uc *authuc.Usecase, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, log: log}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req authuc.LoginInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.Login(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

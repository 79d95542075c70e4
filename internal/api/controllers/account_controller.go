package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"socrat/internal/models/request_models"
	"socrat/internal/models/response_models"
	"socrat/internal/services"
	"socrat/pkg/logger"
	"socrat/pkg/middleware"
	"socrat/pkg/utils"
)

type AccountController struct {
	accountService services.AccountServiceInterface
	log            *logger.Logger
}

func NewAccountController(accountService services.AccountServiceInterface, log *logger.Logger) *AccountController {
	return &AccountController{
		accountService: accountService,
		log:            log,
	}
}

// Signup godoc
// @Summary Register a learner
// @Description Creates an account on the quiz service and returns its token
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body request_models.SignUpRequest true "Signup payload"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /auth/signup [post]
func (a *AccountController) Signup(c *gin.Context) {
	var req request_models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	tok, err := a.accountService.Signup(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, a.log, err, nil)
		return
	}
	utils.RespondSuccess(c, tokenResponse(tok.AccessToken, tok.TokenType, tok.Username), "Account created successfully")
}

// Login godoc
// @Summary Login
// @Description Authenticates against the quiz service and returns a bearer token
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body request_models.LoginRequest true "Login payload"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /auth/login [post]
func (a *AccountController) Login(c *gin.Context) {
	var req request_models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	tok, err := a.accountService.Login(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, a.log, err, nil)
		return
	}
	utils.RespondSuccess(c, tokenResponse(tok.AccessToken, tok.TokenType, tok.Username), "Login successful")
}

// Logout drops the caller's workspace.
func (a *AccountController) Logout(c *gin.Context) {
	a.accountService.Logout(c.GetString(middleware.ContextUserID))
	utils.RespondSuccess(c, nil, "Logged out")
}

func tokenResponse(access, tokenType, username string) response_models.TokenResponse {
	if tokenType == "" {
		tokenType = "bearer"
	}
	return response_models.TokenResponse{AccessToken: access, TokenType: tokenType, Username: username}
}

package controller

import (
	"ctchen222/bookshelf/internal/api/middleware"
	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/response"
	"ctchen222/bookshelf/internal/api/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserController handles account-related HTTP requests.
type UserController struct {
	authService   service.AuthService
	walletService service.WalletService
}

// NewUserController creates a new UserController.
func NewUserController(authService service.AuthService, walletService service.WalletService) *UserController {
	return &UserController{
		authService:   authService,
		walletService: walletService,
	}
}

// Register handles the account registration endpoint.
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}

	if err := uc.authService.Register(c.Request.Context(), &req); err != nil {
		response.Error(c, err)
		return
	}

	response.MessageResponse(c, http.StatusCreated, "Registered! Please login.")
}

// Login handles the login endpoint. Bad credentials are a 400, not a 401.
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}

	resp, err := uc.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrAuth) {
			response.ErrorWithStatus(c, http.StatusBadRequest, err)
			return
		}
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, resp)
}

// BuyTokens credits a token pack to the authenticated account.
func (uc *UserController) BuyTokens(c *gin.Context) {
	balance, err := uc.walletService.BuyTokens(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, models.BalanceResponse{TokenBalance: balance})
}

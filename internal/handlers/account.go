package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	dom "Directory/internal/domain"
	"Directory/internal/dto"
	"Directory/internal/service"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	svc *service.AccountService
	log *slog.Logger
}

func NewAccountHandler(svc *service.AccountService, log *slog.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Create an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateAccountRequest  true  "Account body"
// @Success      201   {object}  dto.AccountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, &dom.ValidationError{Reason: err.Error()})
		return
	}

	in := dom.Account{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Location:    req.Location,
		JoinedOn:    req.JoinedOn.Time(),
	}
	if req.ID != nil {
		in.ID = *req.ID
	}
	a, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.log.InfoContext(c.Request.Context(), "account.created", "id", a.ID, "username", a.Username)
	c.JSON(http.StatusCreated, accountToResponse(a))
}

// List godoc
// @Summary      List all accounts
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  dto.ListAccountsResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListAccountsResponse{Items: accountsToResponses(list)})
}

// GetByID godoc
// @Summary      Get an account by ID
// @Tags         accounts
// @Produce      json
// @Param        id   path      int  true  "Account ID"
// @Success      200  {object}  dto.AccountResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /accounts/{id} [get]
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	a, found, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !found {
		h.writeError(c, &dom.NotFound{Entity: dom.EntityAccount, Field: dom.FieldID, Value: strconv.FormatInt(id, 10)})
		return
	}
	c.JSON(http.StatusOK, accountToResponse(a))
}

// GetByUsername godoc
// @Summary      Get an account by username
// @Tags         accounts
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  dto.AccountResponse
// @Failure      404       {object}  dto.ErrorResponse
// @Failure      500       {object}  dto.ErrorResponse
// @Router       /accounts/by-username/{username} [get]
func (h *AccountHandler) GetByUsername(c *gin.Context) {
	a, err := h.svc.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountToResponse(a))
}

// GetByEmail godoc
// @Summary      Get an account by email
// @Tags         accounts
// @Produce      json
// @Param        email  path      string  true  "Email"
// @Success      200    {object}  dto.AccountResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Failure      500    {object}  dto.ErrorResponse
// @Router       /accounts/by-email/{email} [get]
func (h *AccountHandler) GetByEmail(c *gin.Context) {
	a, err := h.svc.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountToResponse(a))
}

func (h *AccountHandler) parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.writeError(c, &dom.ValidationError{Field: dom.FieldID, Reason: "invalid id"})
		return 0, false
	}
	return id, true
}

func accountToResponse(a dom.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Location:    a.Location,
		JoinedOn:    dto.NewDate(a.JoinedOn),
	}
}

func accountsToResponses(list []dom.Account) []dto.AccountResponse {
	out := make([]dto.AccountResponse, len(list))
	for i := range list {
		out[i] = accountToResponse(list[i])
	}
	return out
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-catalog/internal/config"
	"github.com/iliyamo/cinema-catalog/internal/logger"
	"github.com/iliyamo/cinema-catalog/internal/middleware"
	"github.com/iliyamo/cinema-catalog/internal/repository"
	"github.com/iliyamo/cinema-catalog/internal/serializer"
	"github.com/iliyamo/cinema-catalog/internal/utils"
)

const minPasswordLen = 5

// AuthHandler bundles dependencies for the user and token endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}
type refreshReq struct {
	Refresh string `json:"refresh"`
}
type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// validateCredentials checks the supplied fields.  With partial=false both
// email and password are required.
func validateCredentials(req credentialsReq, partial bool) (repository.UserUpdate, ValidationErrors) {
	verrs := ValidationErrors{}
	var upd repository.UserUpdate
	if req.Email != nil || !partial {
		email := ""
		if req.Email != nil {
			email = repository.NormalizeEmail(*req.Email)
		}
		switch {
		case email == "":
			verrs.Add("email", "this field is required")
		case !validEmail(email):
			verrs.Add("email", "enter a valid email address")
		default:
			upd.Email = &email
		}
	}
	if req.Password != nil || !partial {
		pw := ""
		if req.Password != nil {
			pw = *req.Password
		}
		switch {
		case pw == "":
			verrs.Add("password", "this field is required")
		case len([]rune(pw)) < minPasswordLen:
			verrs.Add("password", "ensure this field has at least 5 characters")
		case len(pw) > utils.MaxPasswordBytes:
			verrs.Add("password", "ensure this field has no more than 72 bytes")
		default:
			upd.Password = &pw
		}
	}
	return upd, verrs
}

// Register handles POST /api/user/register: creates a regular (non-staff) user.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	upd, verrs := validateCredentials(req, false)
	if !verrs.Empty() {
		return validationFailed(c, verrs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	uid, err := h.Users.Create(ctx, *upd.Email, *upd.Password, false, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "user with this email already exists"})
		}
		return internalError(c, "create user failed", err)
	}
	return c.JSON(http.StatusCreated, serializer.UserView{ID: uid, Email: *upd.Email})
}

// issuePair signs an access token and stores a fresh refresh token.
func (h *AuthHandler) issuePair(ctx context.Context, userID uint64, isStaff bool) (tokenPair, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, isStaff, h.Cfg.AccessTTLMin)
	if err != nil {
		return tokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return tokenPair{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return tokenPair{}, err
	}
	return tokenPair{Access: access.Token, Refresh: refresh.Raw}, nil
}

// Token handles POST /api/user/token: verify credentials and return a new
// pair.  A hash made with an outdated bcrypt cost is upgraded on the way.
func (h *AuthHandler) Token(c echo.Context) error {
	var req credentialsReq
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Email == nil || req.Password == nil || strings.TrimSpace(*req.Email) == "" || *req.Password == "" {
		return badRequest(c, "email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, *req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unable to log in with provided credentials"})
		}
		return internalError(c, "load user failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, *req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unable to log in with provided credentials"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user account is disabled"})
	}

	if utils.NeedsRehash(u.PasswordHash, h.Cfg.BcryptCost) {
		pw := *req.Password
		if err := h.Users.Update(ctx, u.ID, repository.UserUpdate{Password: &pw}, h.Cfg.BcryptCost); err != nil {
			logger.L().Warn("password rehash failed", zap.Uint64("user_id", u.ID), zap.Error(err))
		}
	}

	pair, err := h.issuePair(ctx, u.ID, u.IsStaff)
	if err != nil {
		return internalError(c, "issue tokens failed", err)
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh handles POST /api/user/token/refresh: the presented refresh token
// is revoked and replaced by a new one.  The staff flag is re-read from the
// store so a demotion takes effect on the next refresh.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil || strings.TrimSpace(req.Refresh) == "" {
		return badRequest(c, "refresh is required")
	}
	oldHash := utils.HashRefreshRaw(strings.TrimSpace(req.Refresh))

	newRef, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return internalError(c, "issue refresh failed", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	userID, err := h.Tokens.Rotate(ctx, oldHash, utils.HashRefreshRaw(newRef.Raw), newRef.Exp)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidRefresh) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token is invalid or expired"})
		}
		return internalError(c, "rotate refresh failed", err)
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token is invalid or expired"})
		}
		return internalError(c, "load user failed", err)
	}
	if !u.IsActive {
		_ = h.Tokens.RevokeAllForUser(ctx, u.ID)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user account is disabled"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.IsStaff, h.Cfg.AccessTTLMin)
	if err != nil {
		return internalError(c, "issue access failed", err)
	}
	return c.JSON(http.StatusOK, tokenPair{Access: access.Token, Refresh: newRef.Raw})
}

// Revoke handles POST /api/user/token/revoke.  With a refresh token in the
// body only that token is revoked; with just a valid bearer access token all
// of the caller's refresh tokens are revoked.
func (h *AuthHandler) Revoke(c echo.Context) error {
	var req refreshReq
	_ = json.NewDecoder(c.Request().Body).Decode(&req)
	refresh := strings.TrimSpace(req.Refresh)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if refresh != "" {
		hash := utils.HashRefreshRaw(refresh)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			if errors.Is(err, repository.ErrInvalidRefresh) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token is invalid or expired"})
			}
			return internalError(c, "validate refresh failed", err)
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return internalError(c, "revoke refresh failed", err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	p, state := middleware.Authenticate(h.Cfg.JWTSecret, c.Request().Header.Get(echo.HeaderAuthorization))
	if state != middleware.StateAuthenticated {
		if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
			return badRequest(c, "provide Authorization header or refresh")
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication credentials were not provided"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, p.UserID); err != nil {
		return internalError(c, "revoke refresh failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /api/user/me.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication credentials were not provided"})
		}
		return internalError(c, "load user failed", err)
	}
	return c.JSON(http.StatusOK, serializer.User(*u))
}

// UpdateMe handles PUT (email and password required) and PATCH on
// /api/user/me.  The staff flag is read-only.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	userID, _ := middleware.UserID(c)
	var req credentialsReq
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	upd, verrs := validateCredentials(req, c.Request().Method == http.MethodPatch)
	if !verrs.Empty() {
		return validationFailed(c, verrs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.Update(ctx, userID, upd, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "user with this email already exists"})
		}
		return internalError(c, "update user failed", err)
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication credentials were not provided"})
		}
		return internalError(c, "load user failed", err)
	}
	return c.JSON(http.StatusOK, serializer.User(*u))
}

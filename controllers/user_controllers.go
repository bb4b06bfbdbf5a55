package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-floor/middlewares"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type UserController struct {
	Store  *store.Store
	Secret []byte
	TTL    time.Duration
}

func NewUserController(st *store.Store, secret []byte, ttl time.Duration) *UserController {
	return &UserController{Store: st, Secret: secret, TTL: ttl}
}

// Register -> POST /register (admin only)
func (uc *UserController) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !isRole(role) {
		utils.RespondError(c, utils.ErrValidation("invalid role "+req.Role, models.Roles...))
		return
	}
	if len(req.Password) < minPasswordLength {
		utils.RespondError(c, utils.ErrValidation("password must be at least 8 characters"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, utils.ErrInternal("hash password", err))
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hashed),
		Role:     role,
	}
	err = uc.Store.WithTransaction(c.Request.Context(), func(tx *gorm.DB) error {
		return tx.Create(&user).Error
	})
	if err != nil {
		if utils.KindOf(err) == utils.KindConflict {
			err = utils.ErrConflict("email %s is already registered", user.Email)
		}
		utils.RespondError(c, err)
		return
	}

	utils.InfoLogger.WithFields(map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	}).Info("user registered")

	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{
		"user_id": user.ID,
	})
}

// Login -> POST /login, returns a signed JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := bindJSON(c, &input); err != nil {
		utils.RespondError(c, err)
		return
	}

	var user models.User
	err := uc.Store.Read(c.Request.Context(), func(db *gorm.DB) error {
		return db.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error
	})
	if err != nil {
		if utils.KindOf(err) == utils.KindNotFound {
			err = utils.ErrUnauthorized("invalid credentials")
		}
		utils.RespondError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, utils.ErrUnauthorized("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(uc.Secret, uc.TTL, user.ID, user.Role)
	if err != nil {
		utils.RespondError(c, utils.ErrInternal("sign token", err))
		return
	}

	utils.InfoLogger.WithField("email", user.Email).Info("login successful")

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_role": strings.ToLower(user.Role),
	})
}

// GetProfile -> GET /profile, the account behind the bearer token
func (uc *UserController) GetProfile(c *gin.Context) {
	userID, ok := c.Get(middlewares.ContextUserID)
	id, isUint := userID.(uint)
	if !ok || !isUint {
		utils.RespondError(c, utils.ErrUnauthorized("user id not found in context"))
		return
	}

	var user models.User
	err := uc.Store.Read(c.Request.Context(), func(db *gorm.DB) error {
		return db.First(&user, id).Error
	})
	if err != nil {
		if utils.KindOf(err) == utils.KindNotFound {
			err = utils.ErrNotFound("user %d not found", id)
		}
		utils.RespondError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}

func isRole(role string) bool {
	for _, r := range models.Roles {
		if r == role {
			return true
		}
	}
	return false
}

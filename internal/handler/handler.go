// internal/handler/handler.go
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/KiranPolaki/BudgetTracker/internal/middleware"
	"github.com/KiranPolaki/BudgetTracker/internal/storage"
	val "github.com/KiranPolaki/BudgetTracker/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// requireUserID pulls the authenticated user id set by the auth
// middleware; a missing id means the route was wired without it.
func requireUserID(c *gin.Context) (int64, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "user_id missing"})
		return 0, false
	}
	return userID, true
}

// respondStorageError maps storage sentinels onto HTTP responses and
// logs anything unexpected. publicMsg is what a 500 shows the client.
func respondStorageError(c *gin.Context, err error, publicMsg string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, storage.ErrUsernameTaken):
		c.JSON(http.StatusBadRequest, gin.H{"username": "A user with that username already exists"})
	case errors.Is(err, storage.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"email": "A user with that email already exists"})
	case errors.Is(err, storage.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already exists"})
	default:
		slog.Error(publicMsg, "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": publicMsg})
	}
}

func validateStruct(v any) error {
	if err := val.Validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		var errs []string
		for _, e := range verrs {
			errs = append(errs, fieldErrorToString(e))
		}
		return fmt.Errorf("invalid input: %s", strings.Join(errs, "; "))
	}
	return nil
}

func fieldErrorToString(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", e.Field())
	case "txtype":
		return fmt.Sprintf("%s must be INCOME or EXPENSE", e.Field())
	case "dateonly":
		return fmt.Sprintf("%s must be in YYYY-MM-DD format", e.Field())
	case "firstofmonth":
		return fmt.Sprintf("%s must be the first day of a month in YYYY-MM-DD format", e.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", e.Field())
	case "min":
		return fmt.Sprintf("%s is too short", e.Field())
	case "max":
		return fmt.Sprintf("%s is too long", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}

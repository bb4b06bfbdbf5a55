package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-floor/utils"
)

func parseID(c *gin.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, utils.ErrValidation("id must be a positive integer, got " + strconv.Quote(raw))
	}
	return uint(id), nil
}

// bindJSON decodes the body and reports binding failures as validation errors.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return utils.ErrValidation("invalid request body: " + err.Error())
	}
	return nil
}

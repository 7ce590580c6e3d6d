package handlers

import (
	"net/http"
	"strconv"

	"namingthings/middleware"
	"namingthings/models"
	"namingthings/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindBadRequest:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error", "kind"}. Internal details stay in
// the log.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status := statusFor(kind)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		message = "internal error"
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message, "kind": kind.String()})
}

func currentPlayer(c *gin.Context) (*models.Player, bool) {
	player, ok := middleware.CurrentPlayer(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not authenticated", "kind": services.KindUnauthorized.String()})
		return nil, false
	}
	return player, true
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || value == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "kind": services.KindBadRequest.String()})
		return 0, false
	}
	return uint(value), true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": services.KindBadRequest.String()})
		return false
	}
	return true
}

func respondOK(c *gin.Context) {
	c.JSON(http.StatusOK, services.OKResponse{OK: true})
}

package handlers

import (
	"errors"

	"neokids-server/internal/store"
	"neokids-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondStoreError maps a store error to its HTTP status. Anything outside
// the store's taxonomy is a storage failure and is logged before the 500.
func respondStoreError(c *gin.Context, log *zap.Logger, err error, notFoundMsg, failureMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.NotFound(c, notFoundMsg)
	case errors.Is(err, store.ErrInvalidInput):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, store.ErrInvalidTransition):
		utils.UnprocessableEntity(c, err.Error())
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrInUse):
		utils.Conflict(c, err.Error())
	default:
		log.Error(failureMsg,
			zap.String("request_id", c.GetString("requestID")),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		utils.InternalServerError(c, failureMsg)
	}
}

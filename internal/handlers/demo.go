package handlers

import (
	"context"

	"neokids-server/internal/seed"
	"neokids-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DemoSeeder loads demonstration data.
type DemoSeeder interface {
	Run(ctx context.Context) (seed.Result, error)
}

// DemoHandler exposes the demo data loader over HTTP.
type DemoHandler struct {
	Seeder DemoSeeder
	Log    *zap.Logger
}

// NewDemoHandler creates a new DemoHandler.
func NewDemoHandler(seeder DemoSeeder, log *zap.Logger) *DemoHandler {
	return &DemoHandler{Seeder: seeder, Log: log}
}

// InitDemo inserts the demo users, services and patient that are missing.
func (h *DemoHandler) InitDemo(c *gin.Context) {
	res, err := h.Seeder.Run(c.Request.Context())
	if err != nil {
		h.Log.Error("init demo", zap.Error(err))
		utils.InternalServerError(c, "Erro ao inicializar dados de demonstração")
		return
	}
	utils.Success(c, gin.H{"success": true, "created": res})
}

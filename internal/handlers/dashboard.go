package handlers

import (
	"time"

	"neokids-server/internal/stats"
	"neokids-server/internal/store"
	"neokids-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardHandler serves the aggregated clinic figures.
type DashboardHandler struct {
	Appointments store.AppointmentRepository
	Log          *zap.Logger
	Now          func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(appointments store.AppointmentRepository, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{Appointments: appointments, Log: log, Now: time.Now}
}

// GetStats aggregates every appointment as of now, in the server's local time.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	appointments, err := h.Appointments.Summaries(c.Request.Context())
	if err != nil {
		respondStoreError(c, h.Log, err, "Atendimento não encontrado", "Erro ao calcular estatísticas")
		return
	}
	utils.Success(c, stats.Compute(appointments, h.Now()))
}

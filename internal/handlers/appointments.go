package handlers

import (
	"strings"

	"neokids-server/internal/middleware"
	"neokids-server/internal/models"
	"neokids-server/internal/store"
	"neokids-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Appointments   store.AppointmentRepository
	Patients       store.PatientRepository
	Services       store.ServiceRepository
	Log            *zap.Logger
	RequireConsent bool
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(appointments store.AppointmentRepository, patients store.PatientRepository, services store.ServiceRepository, log *zap.Logger, requireConsent bool) *AppointmentHandler {
	return &AppointmentHandler{
		Appointments:   appointments,
		Patients:       patients,
		Services:       services,
		Log:            log,
		RequireConsent: requireConsent,
	}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
// The patient is referenced by id; a bare name is accepted for walk-ins that
// were never registered.
type CreateAppointmentRequest struct {
	PatientID     string   `json:"patientId" validate:"required_without=PatientName"`
	PatientName   string   `json:"patientName" validate:"required_without=PatientID"`
	Services      []string `json:"services" validate:"required,min=1,dive,required"`
	InsuranceType string   `json:"insuranceType" validate:"max=50"`
}

// CreateAppointment opens an appointment with a price snapshot of every
// requested service and one sample per service.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()

	patientName := strings.TrimSpace(req.PatientName)
	if req.PatientID != "" {
		patient, err := h.Patients.FindByID(ctx, req.PatientID)
		if err != nil {
			respondStoreError(c, h.Log, err, "Paciente não encontrado", "Erro ao buscar paciente")
			return
		}
		if h.RequireConsent && !patient.ConsentLGPD {
			utils.BadRequest(c, "Paciente sem consentimento LGPD registrado")
			return
		}
		patientName = patient.Name
	} else if h.RequireConsent {
		utils.BadRequest(c, "Paciente sem consentimento LGPD registrado")
		return
	}

	services, err := h.Services.FindByIDs(ctx, req.Services)
	if err != nil {
		respondStoreError(c, h.Log, err, "Serviço não encontrado", "Erro ao buscar serviços")
		return
	}
	snapshots := make([]models.ServiceSnapshot, len(services))
	for i := range services {
		snapshots[i] = services[i].Snapshot()
	}

	createdBy, _ := middleware.GetUserIDFromContext(c)
	appointment, err := h.Appointments.Create(ctx, store.CreateAppointmentInput{
		PatientID:     req.PatientID,
		PatientName:   patientName,
		Services:      snapshots,
		InsuranceType: req.InsuranceType,
		CreatedBy:     createdBy,
	})
	if err != nil {
		respondStoreError(c, h.Log, err, "Atendimento não encontrado", "Erro ao criar atendimento")
		return
	}

	h.Log.Info("appointment created",
		zap.String("appointment_id", appointment.ID),
		zap.Int("samples", len(appointment.SampleIDs)),
		zap.Float64("total_amount", appointment.TotalAmount),
	)
	utils.Created(c, gin.H{"success": true, "appointment": appointment})
}

// GetAppointments lists appointments, optionally filtered by ?q= and ?status=.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	status := models.AppointmentStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		utils.BadRequest(c, "Status inválido: "+string(status))
		return
	}

	appointments, err := h.Appointments.Search(c.Request.Context(), c.Query("q"), status)
	if err != nil {
		respondStoreError(c, h.Log, err, "Atendimento não encontrado", "Erro ao buscar atendimentos")
		return
	}
	utils.Success(c, gin.H{"appointments": appointments})
}

// GetAppointmentByID returns a single appointment.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointment, err := h.Appointments.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, h.Log, err, "Atendimento não encontrado", "Erro ao buscar atendimento")
		return
	}
	utils.Success(c, gin.H{"appointment": appointment})
}

// GetAppointmentSamples lists the laboratory samples of an appointment.
func (h *AppointmentHandler) GetAppointmentSamples(c *gin.Context) {
	samples, err := h.Appointments.Samples(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, h.Log, err, "Atendimento não encontrado", "Erro ao buscar amostras")
		return
	}
	utils.Success(c, gin.H{"samples": samples})
}

// UpdateAppointmentStatusRequest represents the request body for updating an appointment's status.
type UpdateAppointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" validate:"required,appointment_status"`
}

// UpdateAppointmentStatus advances the appointment, and all of its samples,
// to the next status of the chain.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Appointments.AdvanceStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondStoreError(c, h.Log, err, "Atendimento não encontrado", "Erro ao atualizar status")
		return
	}

	h.Log.Info("appointment status advanced",
		zap.String("appointment_id", appointment.ID),
		zap.String("status", string(appointment.Status)),
		zap.Int("revision", appointment.Revision),
	)
	utils.Success(c, gin.H{"success": true, "appointment": appointment})
}

// DeleteAppointment removes an appointment and its samples.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	if err := h.Appointments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, h.Log, err, "Atendimento não encontrado", "Erro ao excluir atendimento")
		return
	}
	utils.Success(c, gin.H{"success": true})
}

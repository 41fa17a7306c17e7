package handlers

import (
	"neokids-server/internal/middleware"
	"neokids-server/internal/models"
	"neokids-server/internal/store"
	"neokids-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PatientHandler handles patient registry requests.
type PatientHandler struct {
	Patients store.PatientRepository
	Log      *zap.Logger
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(patients store.PatientRepository, log *zap.Logger) *PatientHandler {
	return &PatientHandler{Patients: patients, Log: log}
}

// PatientRequest is the body of both create and update.
type PatientRequest struct {
	Name             string `json:"name" validate:"required,max=150"`
	BirthDate        string `json:"birthDate" validate:"required,datetime=2006-01-02"`
	CPF              string `json:"cpf" validate:"required,max=14"`
	Phone            string `json:"phone" validate:"required,max=20"`
	Email            string `json:"email" validate:"omitempty,email"`
	Address          string `json:"address" validate:"required,max=255"`
	ResponsibleName  string `json:"responsibleName" validate:"required,max=150"`
	ResponsibleCPF   string `json:"responsibleCpf" validate:"required,max=14"`
	ResponsiblePhone string `json:"responsiblePhone" validate:"required,max=20"`
	ConsentLGPD      bool   `json:"consentLGPD"`
	SpecialAlert     string `json:"specialAlert"`
}

func (r *PatientRequest) apply(p *models.Patient) {
	p.Name = r.Name
	p.BirthDate = r.BirthDate
	p.CPF = r.CPF
	p.Phone = r.Phone
	p.Email = r.Email
	p.Address = r.Address
	p.ResponsibleName = r.ResponsibleName
	p.ResponsibleCPF = r.ResponsibleCPF
	p.ResponsiblePhone = r.ResponsiblePhone
	p.ConsentLGPD = r.ConsentLGPD
	p.SpecialAlert = r.SpecialAlert
}

// CreatePatient registers a new patient.
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req PatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var patient models.Patient
	req.apply(&patient)
	patient.CreatedBy, _ = middleware.GetUserIDFromContext(c)

	if err := h.Patients.Create(c.Request.Context(), &patient); err != nil {
		respondStoreError(c, h.Log, err, "Paciente não encontrado", "Erro ao cadastrar paciente")
		return
	}
	utils.Created(c, gin.H{"success": true, "patient": patient})
}

// SearchPatients returns patients matching ?q=, or all of them.
func (h *PatientHandler) SearchPatients(c *gin.Context) {
	patients, err := h.Patients.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondStoreError(c, h.Log, err, "Paciente não encontrado", "Erro ao buscar pacientes")
		return
	}
	utils.Success(c, gin.H{"patients": patients})
}

// GetPatientByID returns a single patient.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	patient, err := h.Patients.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, h.Log, err, "Paciente não encontrado", "Erro ao buscar paciente")
		return
	}
	utils.Success(c, gin.H{"patient": patient})
}

// UpdatePatient replaces the editable fields of a patient.
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var req PatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()

	patient, err := h.Patients.FindByID(ctx, c.Param("id"))
	if err != nil {
		respondStoreError(c, h.Log, err, "Paciente não encontrado", "Erro ao buscar paciente")
		return
	}
	req.apply(patient)

	if err := h.Patients.Update(ctx, patient); err != nil {
		respondStoreError(c, h.Log, err, "Paciente não encontrado", "Erro ao atualizar paciente")
		return
	}
	utils.Success(c, gin.H{"success": true, "patient": patient})
}

// DeletePatient removes a patient with no open appointments.
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	if err := h.Patients.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, h.Log, err, "Paciente não encontrado", "Erro ao excluir paciente")
		return
	}
	utils.Success(c, gin.H{"success": true})
}

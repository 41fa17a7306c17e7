package handlers

import (
	"neokids-server/internal/middleware"
	"neokids-server/internal/models"
	"neokids-server/internal/store"
	"neokids-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServiceHandler handles service catalog requests.
type ServiceHandler struct {
	Services store.ServiceRepository
	Log      *zap.Logger
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(services store.ServiceRepository, log *zap.Logger) *ServiceHandler {
	return &ServiceHandler{Services: services, Log: log}
}

// ServiceRequest is the body of both create and update.
type ServiceRequest struct {
	Name            string                 `json:"name" validate:"required,max=150"`
	Category        models.ServiceCategory `json:"category" validate:"required,service_category"`
	Code            string                 `json:"code" validate:"max=20"`
	BasePrice       float64                `json:"basePrice" validate:"gte=0"`
	OperationalCost float64                `json:"operationalCost" validate:"gte=0"`
	EstimatedTime   string                 `json:"estimatedTime" validate:"max=50"`
	Instructions    string                 `json:"instructions"`
}

func (r *ServiceRequest) apply(s *models.Service) {
	s.Name = r.Name
	s.Category = r.Category
	s.Code = r.Code
	s.BasePrice = r.BasePrice
	s.OperationalCost = r.OperationalCost
	s.EstimatedTime = r.EstimatedTime
	s.Instructions = r.Instructions
}

// CreateService adds an item to the catalog.
func (h *ServiceHandler) CreateService(c *gin.Context) {
	var req ServiceRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var service models.Service
	req.apply(&service)
	service.CreatedBy, _ = middleware.GetUserIDFromContext(c)

	if err := h.Services.Create(c.Request.Context(), &service); err != nil {
		respondStoreError(c, h.Log, err, "Serviço não encontrado", "Erro ao criar serviço")
		return
	}
	utils.Created(c, gin.H{"success": true, "service": service.WithMargin()})
}

// GetServices lists the catalog with the margin of each item.
func (h *ServiceHandler) GetServices(c *gin.Context) {
	services, err := h.Services.List(c.Request.Context())
	if err != nil {
		respondStoreError(c, h.Log, err, "Serviço não encontrado", "Erro ao buscar serviços")
		return
	}

	out := make([]models.ServiceWithMargin, len(services))
	for i := range services {
		out[i] = services[i].WithMargin()
	}
	utils.Success(c, gin.H{"services": out})
}

// GetServiceByID returns a single catalog item.
func (h *ServiceHandler) GetServiceByID(c *gin.Context) {
	service, err := h.Services.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, h.Log, err, "Serviço não encontrado", "Erro ao buscar serviço")
		return
	}
	utils.Success(c, gin.H{"service": service.WithMargin()})
}

// UpdateService changes a catalog item. Appointments already opened keep
// the snapshot taken when they were created.
func (h *ServiceHandler) UpdateService(c *gin.Context) {
	var req ServiceRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()

	service, err := h.Services.FindByID(ctx, c.Param("id"))
	if err != nil {
		respondStoreError(c, h.Log, err, "Serviço não encontrado", "Erro ao buscar serviço")
		return
	}
	req.apply(service)

	if err := h.Services.Update(ctx, service); err != nil {
		respondStoreError(c, h.Log, err, "Serviço não encontrado", "Erro ao atualizar serviço")
		return
	}
	utils.Success(c, gin.H{"success": true, "service": service.WithMargin()})
}

// DeleteService removes a catalog item that no open sample depends on.
func (h *ServiceHandler) DeleteService(c *gin.Context) {
	if err := h.Services.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, h.Log, err, "Serviço não encontrado", "Erro ao excluir serviço")
		return
	}
	utils.Success(c, gin.H{"success": true})
}

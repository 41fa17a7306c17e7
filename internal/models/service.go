package models

// ServiceCategory groups catalog items on the price list.
type ServiceCategory string

const (
	CategoryClinicalAnalysis ServiceCategory = "Análises Clínicas"
	CategoryImaging          ServiceCategory = "Exames de Imagem"
	CategoryVaccines         ServiceCategory = "Vacinas"
	CategoryConsultations    ServiceCategory = "Consultas"
	CategoryProcedures       ServiceCategory = "Procedimentos"
)

// ServiceCategories lists the accepted categories in display order.
var ServiceCategories = []ServiceCategory{
	CategoryClinicalAnalysis,
	CategoryImaging,
	CategoryVaccines,
	CategoryConsultations,
	CategoryProcedures,
}

// Valid reports whether c is one of the fixed catalog categories.
func (c ServiceCategory) Valid() bool {
	for _, known := range ServiceCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Service is a catalog item that can be ordered in an appointment.
type Service struct {
	BaseModel
	Name            string          `gorm:"size:150;not null" json:"name"`
	Category        ServiceCategory `gorm:"size:50;not null;index" json:"category"`
	Code            string          `gorm:"size:20;index" json:"code"`
	BasePrice       float64         `gorm:"not null" json:"basePrice"`
	OperationalCost float64         `gorm:"not null;default:0" json:"operationalCost"`
	EstimatedTime   string          `gorm:"size:50" json:"estimatedTime"`
	Instructions    string          `gorm:"type:text" json:"instructions"`
	CreatedBy       string          `gorm:"size:36" json:"createdBy,omitempty"`
}

// Margin returns (basePrice - operationalCost) / basePrice, or 0 for a free item.
func (s *Service) Margin() float64 {
	if s.BasePrice == 0 {
		return 0
	}
	return (s.BasePrice - s.OperationalCost) / s.BasePrice
}

// Snapshot freezes the billable view of the service at order time.
func (s *Service) Snapshot() ServiceSnapshot {
	return ServiceSnapshot{
		ID:              s.ID,
		Name:            s.Name,
		Category:        s.Category,
		Code:            s.Code,
		BasePrice:       s.BasePrice,
		OperationalCost: s.OperationalCost,
		EstimatedTime:   s.EstimatedTime,
		Instructions:    s.Instructions,
	}
}

// ServiceWithMargin is the API view of a Service.
type ServiceWithMargin struct {
	Service
	Margin float64 `json:"margin"`
}

// WithMargin attaches the derived margin for responses.
func (s Service) WithMargin() ServiceWithMargin {
	return ServiceWithMargin{Service: s, Margin: s.Margin()}
}

// ServiceSnapshot is the copy of a Service embedded in an appointment.
type ServiceSnapshot struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Category        ServiceCategory `json:"category"`
	Code            string          `json:"code"`
	BasePrice       float64         `json:"basePrice"`
	OperationalCost float64         `json:"operationalCost"`
	EstimatedTime   string          `json:"estimatedTime,omitempty"`
	Instructions    string          `json:"instructions,omitempty"`
}

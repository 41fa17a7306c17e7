package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AppointmentStatus represents the status of an appointment and its samples.
// The string values are part of the wire contract with the front desk UI.
type AppointmentStatus string

const (
	StatusAwaitingCollection AppointmentStatus = "Aguardando Coleta"
	StatusUnderAnalysis      AppointmentStatus = "Em Análise"
	StatusAwaitingReport     AppointmentStatus = "Aguardando Laudo"
	StatusFinalized          AppointmentStatus = "Finalizado"
)

// StatusChain is the lifecycle in order, from intake to finalization.
var StatusChain = []AppointmentStatus{
	StatusAwaitingCollection,
	StatusUnderAnalysis,
	StatusAwaitingReport,
	StatusFinalized,
}

// nextStatus is the transition table. Finalizado has no entry.
var nextStatus = map[AppointmentStatus]AppointmentStatus{
	StatusAwaitingCollection: StatusUnderAnalysis,
	StatusUnderAnalysis:      StatusAwaitingReport,
	StatusAwaitingReport:     StatusFinalized,
}

// Valid reports whether s belongs to the status chain.
func (s AppointmentStatus) Valid() bool {
	for _, known := range StatusChain {
		if s == known {
			return true
		}
	}
	return false
}

// Next returns the successor of s. ok is false for the terminal status and
// for values outside the chain.
func (s AppointmentStatus) Next() (next AppointmentStatus, ok bool) {
	next, ok = nextStatus[s]
	return next, ok
}

// Terminal reports whether no transition leaves s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusFinalized
}

// CanAdvanceTo reports whether to is exactly the successor of s.
func (s AppointmentStatus) CanAdvanceTo(to AppointmentStatus) bool {
	next, ok := s.Next()
	return ok && next == to
}

// Appointment is a billable visit bundling one or more services for a patient.
// Services holds the price snapshot taken at creation; SampleIDs mirrors the
// owned samples in service order.
type Appointment struct {
	ID            string                               `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PatientID     string                               `gorm:"size:36;index" json:"patientId,omitempty"`
	PatientName   string                               `gorm:"size:150;not null;index" json:"patientName"`
	Services      datatypes.JSONSlice[ServiceSnapshot] `json:"services"`
	TotalAmount   float64                              `gorm:"not null;default:0" json:"totalAmount"`
	InsuranceType string                               `gorm:"size:50" json:"insuranceType,omitempty"`
	Status        AppointmentStatus                    `gorm:"size:30;not null;index;default:'Aguardando Coleta'" json:"status"`
	Revision      int                                  `gorm:"not null;default:0" json:"revision"`
	CreatedBy     string                               `gorm:"size:36" json:"createdBy,omitempty"`
	CreatedAt     time.Time                            `gorm:"index" json:"createdAt"`
	UpdatedAt     *time.Time                           `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`

	SampleIDs []string `gorm:"-" json:"sampleIds"`
	Samples   []Sample `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// AfterFind fills SampleIDs from preloaded samples, in service order.
func (a *Appointment) AfterFind(tx *gorm.DB) error {
	if len(a.Samples) == 0 {
		return nil
	}
	sort.SliceStable(a.Samples, func(i, j int) bool {
		return a.Samples[i].Position < a.Samples[j].Position
	})
	a.SampleIDs = make([]string, len(a.Samples))
	for i, s := range a.Samples {
		a.SampleIDs[i] = s.ID
	}
	return nil
}

// Sample tracks one ordered service of an appointment in the laboratory.
// Its status always equals the parent appointment's status.
type Sample struct {
	ID            string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AppointmentID string            `gorm:"size:36;not null;index" json:"appointmentId"`
	ServiceID     string            `gorm:"size:36;index" json:"serviceId"`
	Position      int               `gorm:"not null" json:"position"`
	Status        AppointmentStatus `gorm:"size:30;not null;index" json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     *time.Time        `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
}

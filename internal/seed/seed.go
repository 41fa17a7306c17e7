// Package seed loads the demonstration staff, catalog and patient used to
// try the clinic backend out.
package seed

import (
	"context"
	"errors"
	"fmt"

	"neokids-server/internal/models"
	"neokids-server/internal/store"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type demoUser struct {
	Email    string
	Password string
	Name     string
	Role     models.Role
}

var demoUsers = []demoUser{
	{Email: "admin@neokids.com", Password: "admin123", Name: "Administrador Neokids", Role: models.RoleAdmin},
	{Email: "atendente@neokids.com", Password: "atendente123", Name: "Maria Silva", Role: models.RoleAttendant},
	{Email: "tecnico@neokids.com", Password: "tecnico123", Name: "João Santos", Role: models.RoleTechnician},
}

var demoServices = []models.Service{
	{
		Name:            "Hemograma Completo",
		Category:        models.CategoryClinicalAnalysis,
		Code:            "HG001",
		BasePrice:       45,
		OperationalCost: 12,
		EstimatedTime:   "2-4 horas",
		Instructions:    "Não é necessário jejum. Evitar exercícios físicos intensos 24h antes.",
	},
	{
		Name:            "Glicemia de Jejum",
		Category:        models.CategoryClinicalAnalysis,
		Code:            "GL001",
		BasePrice:       25,
		OperationalCost: 6,
		EstimatedTime:   "2 horas",
		Instructions:    "Jejum de 8 a 12 horas. Apenas água é permitida.",
	},
	{
		Name:            "Radiografia de Tórax",
		Category:        models.CategoryImaging,
		Code:            "RX001",
		BasePrice:       120,
		OperationalCost: 35,
		EstimatedTime:   "30 minutos",
		Instructions:    "Remover objetos metálicos. Evitar roupas com metais.",
	},
	{
		Name:            "Ultrassom Abdominal",
		Category:        models.CategoryImaging,
		Code:            "US001",
		BasePrice:       180,
		OperationalCost: 50,
		EstimatedTime:   "24 horas",
		Instructions:    "Jejum de 8 horas. Beber 4 copos de água 1 hora antes do exame.",
	},
	{
		Name:            "Vacina Tríplice Viral",
		Category:        models.CategoryVaccines,
		Code:            "VT001",
		BasePrice:       85,
		OperationalCost: 65,
		EstimatedTime:   "Imediato",
		Instructions:    "Criança deve estar saudável. Informar sobre alergias.",
	},
}

var demoPatient = models.Patient{
	Name:             "Ana Clara Silva",
	BirthDate:        "2018-03-15",
	CPF:              "12345678901",
	Phone:            "11987654321",
	Email:            "ana.clara@email.com",
	Address:          "Rua das Flores, 123, Vila Nova, São Paulo, SP - 01234-567",
	ResponsibleName:  "Maria Silva Santos",
	ResponsibleCPF:   "98765432100",
	ResponsiblePhone: "11987654321",
	ConsentLGPD:      true,
	SpecialAlert:     "Alergia a penicilina",
}

// Result counts what a run actually inserted.
type Result struct {
	Users    int `json:"users"`
	Services int `json:"services"`
	Patients int `json:"patients"`
}

// Seeder inserts the demo data. Running it twice inserts nothing the second time.
type Seeder struct {
	DB       *gorm.DB
	Users    store.UserRepository
	Services store.ServiceRepository
	Patients store.PatientRepository
	Log      *zap.Logger
}

// New wires a Seeder to the gorm stores.
func New(db *gorm.DB, log *zap.Logger) *Seeder {
	return &Seeder{
		DB:       db,
		Users:    store.NewUserStore(db),
		Services: store.NewServiceStore(db),
		Patients: store.NewPatientStore(db),
		Log:      log,
	}
}

// Run inserts whatever demo rows are missing, in one transaction.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result
	err := store.WithTx(ctx, s.DB, func(ctx context.Context, _ *gorm.DB) error {
		var err error
		if res.Users, err = s.seedUsers(ctx); err != nil {
			return err
		}
		if res.Services, err = s.seedServices(ctx); err != nil {
			return err
		}
		res.Patients, err = s.seedPatient(ctx)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	s.Log.Info("demo data seeded",
		zap.Int("users", res.Users),
		zap.Int("services", res.Services),
		zap.Int("patients", res.Patients),
	)
	return res, nil
}

func (s *Seeder) seedUsers(ctx context.Context) (int, error) {
	created := 0
	for _, du := range demoUsers {
		_, err := s.Users.FindByEmail(ctx, du.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return created, err
		}

		user := models.User{Email: du.Email, Name: du.Name, Role: du.Role}
		if err := user.SetPassword(du.Password); err != nil {
			return created, fmt.Errorf("hash password for %s: %w", du.Email, err)
		}
		if err := s.Users.Create(ctx, &user); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *Seeder) seedServices(ctx context.Context) (int, error) {
	existing, err := s.Services.List(ctx)
	if err != nil {
		return 0, err
	}
	codes := make(map[string]bool, len(existing))
	for _, svc := range existing {
		codes[svc.Code] = true
	}

	created := 0
	for _, svc := range demoServices {
		if codes[svc.Code] {
			continue
		}
		svc := svc
		if err := s.Services.Create(ctx, &svc); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *Seeder) seedPatient(ctx context.Context) (int, error) {
	matches, err := s.Patients.Search(ctx, demoPatient.CPF)
	if err != nil {
		return 0, err
	}
	for _, p := range matches {
		if p.CPF == demoPatient.CPF {
			return 0, nil
		}
	}

	patient := demoPatient
	if err := s.Patients.Create(ctx, &patient); err != nil {
		return 0, err
	}
	return 1, nil
}

package models

// Patient is a registered child together with their legal guardian.
type Patient struct {
	BaseModel
	Name             string `gorm:"size:150;not null;index" json:"name"`
	BirthDate        string `gorm:"size:10" json:"birthDate"`
	CPF              string `gorm:"column:cpf;size:14;index" json:"cpf"`
	Phone            string `gorm:"size:20" json:"phone"`
	Email            string `gorm:"size:255" json:"email,omitempty"`
	Address          string `gorm:"size:255" json:"address"`
	ResponsibleName  string `gorm:"size:150" json:"responsibleName"`
	ResponsibleCPF   string `gorm:"column:responsible_cpf;size:14" json:"responsibleCpf"`
	ResponsiblePhone string `gorm:"size:20" json:"responsiblePhone"`
	ConsentLGPD      bool   `gorm:"column:consent_lgpd;default:false" json:"consentLGPD"`
	SpecialAlert     string `gorm:"type:text" json:"specialAlert,omitempty"`
	CreatedBy        string `gorm:"size:36" json:"createdBy,omitempty"`
}

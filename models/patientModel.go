package models

import (
	"time"
)

// Patient model. Only the columns the scheduling core reads are mapped.
type Patient struct {
	ID                  string    `gorm:"primaryKey;column:id" json:"id"`
	FirstName           string    `gorm:"column:first_name;not null" json:"first_name"`
	LastName            string    `gorm:"column:last_name;not null;index" json:"last_name"`
	Email               string    `gorm:"column:email;unique" json:"email"`
	Phone               string    `gorm:"column:phone" json:"phone"`
	InsuranceProviderID *string   `gorm:"column:insurance_provider_id;index" json:"insurance_provider_id,omitempty"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Patient) TableName() string {
	return "patients"
}

// Provider model
type Provider struct {
	ID        string    `gorm:"primaryKey;column:id" json:"id"`
	FirstName string    `gorm:"column:first_name;not null" json:"first_name"`
	LastName  string    `gorm:"column:last_name;not null;index" json:"last_name"`
	Email     string    `gorm:"column:email;unique" json:"email"`
	RoleTitle RoleTitle `gorm:"column:role_title;size:50;not null;index" json:"role_title"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Provider) TableName() string {
	return "providers"
}

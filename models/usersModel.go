package models

import (
	"time"

	"gorm.io/gorm"
)

// RoleTitle is a provider's job title. Only recognized titles may write
// clinical fields on an appointment.
type RoleTitle string

const (
	RoleAdmin            RoleTitle = "ADMIN"
	RoleReceptionist     RoleTitle = "RECEPTIONIST"
	RoleGeneralPractice  RoleTitle = "GENERAL_PRACTITIONER"
	RoleSpecialist       RoleTitle = "SPECIALIST"
	RoleNurse            RoleTitle = "NURSE"
	RoleMidwife          RoleTitle = "MIDWIFE"
	RolePharmacist       RoleTitle = "PHARMACIST"
	RoleLabTechnician    RoleTitle = "LAB_TECHNICIAN"
	RoleMedicalAssistant RoleTitle = "MEDICAL_ASSISTANT"
)

// RoleTitles is the full set of recognized provider role titles.
var RoleTitles = []RoleTitle{
	RoleAdmin,
	RoleReceptionist,
	RoleGeneralPractice,
	RoleSpecialist,
	RoleNurse,
	RoleMidwife,
	RolePharmacist,
	RoleLabTechnician,
	RoleMedicalAssistant,
}

func (r RoleTitle) IsRecognized() bool {
	for _, title := range RoleTitles {
		if r == title {
			return true
		}
	}
	return false
}

// CanManageAll reports whether the role sees and manages every appointment.
func (r RoleTitle) CanManageAll() bool {
	return r == RoleAdmin || r == RoleReceptionist
}

// Role represents a provider role title
type Role struct {
	ID          int64     `gorm:"primaryKey;column:id" json:"id"`
	Title       RoleTitle `gorm:"size:50;not null;unique;index;column:title" json:"title"`
	Description string    `gorm:"type:text;column:description" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime;column:created_at" json:"created_at"`
}

func (Role) TableName() string {
	return "roles"
}

var roleDescriptions = map[RoleTitle]string{
	RoleAdmin:            "Full access to the clinic",
	RoleReceptionist:     "Books, reschedules and assigns appointments",
	RoleGeneralPractice:  "Attends patients and writes clinical notes",
	RoleSpecialist:       "Attends referred patients",
	RoleNurse:            "Checks patients in and records vitals",
	RoleMidwife:          "Antenatal and maternal care",
	RolePharmacist:       "Dispenses prescriptions",
	RoleLabTechnician:    "Processes test requests",
	RoleMedicalAssistant: "Assists providers during visits",
}

// SeedRoles inserts the recognized role titles into the database
func SeedRoles(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, title := range RoleTitles {
			role := Role{Title: title, Description: roleDescriptions[title]}
			if err := tx.FirstOrCreate(&role, Role{Title: title}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

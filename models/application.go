package models

import (
	"time"

	"gorm.io/gorm"
)

// Application statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Applicant user types.
const (
	UserTypeStudent = "student"
	UserTypeFaculty = "faculty"
	UserTypeStaff   = "staff"
)

// Upload field names, in validation order.
const (
	FieldPhoto          = "photo"
	FieldFIR            = "fir"
	FieldPayment        = "payment"
	FieldApplicationPDF = "applicationPdf"
)

// UploadFields lists the document slots in the order they are validated and stored.
var UploadFields = []string{FieldPhoto, FieldFIR, FieldPayment, FieldApplicationPDF}

// ValidStatus reports whether s is a known application status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ValidUserType reports whether t is a known applicant type.
func ValidUserType(t string) bool {
	switch t {
	case UserTypeStudent, UserTypeFaculty, UserTypeStaff:
		return true
	}
	return false
}

// Application is an ID card request. File slots hold opaque storage keys; the
// *URL fields are filled with freshly signed links on read and never persisted.
type Application struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ApplicationID   string     `gorm:"size:32;not null;uniqueIndex" json:"applicationId"`
	UserType        string     `gorm:"size:16;not null;index" json:"userType"`
	Status          string     `gorm:"size:16;not null;default:'pending';index" json:"status"`
	Title           string     `gorm:"size:16" json:"title,omitempty"`
	Name            string     `gorm:"size:128;not null" json:"name"`
	RollNo          string     `gorm:"size:64;index" json:"rollNo,omitempty"`
	StaffNo         string     `gorm:"size:64" json:"staffNo,omitempty"`
	Designation     string     `gorm:"size:128" json:"designation,omitempty"`
	Department      string     `gorm:"size:128" json:"department,omitempty"`
	Branch          string     `gorm:"size:128" json:"branch,omitempty"`
	FatherName      string     `gorm:"size:128" json:"fatherName,omitempty"`
	DOB             string     `gorm:"size:32" json:"dob,omitempty"`
	BloodGroup      string     `gorm:"size:8" json:"bloodGroup,omitempty"`
	Email           string     `gorm:"size:255;not null;index" json:"email"`
	Phone           string     `gorm:"size:32" json:"phone,omitempty"`
	Address         string     `gorm:"size:512" json:"address,omitempty"`
	RequestCategory string     `gorm:"size:64" json:"requestCategory,omitempty"`
	ReasonDetails   string     `gorm:"type:text" json:"reasonDetails,omitempty"`
	IssuedBooks     string     `gorm:"size:255" json:"issuedBooks,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejectionReason,omitempty"`
	PhotoPath       string     `gorm:"size:512" json:"photoPath,omitempty"`
	FIRPath         string     `gorm:"column:fir_path;size:512" json:"firPath,omitempty"`
	PaymentPath     string     `gorm:"size:512" json:"paymentPath,omitempty"`
	ApplicationPDF  string     `gorm:"column:application_pdf_path;size:512" json:"applicationPdfPath,omitempty"`
	PhotoURL        string     `gorm:"-" json:"photoUrl,omitempty"`
	FIRURL          string     `gorm:"-" json:"firUrl,omitempty"`
	PaymentURL      string     `gorm:"-" json:"paymentUrl,omitempty"`
	PDFURL          string     `gorm:"-" json:"pdfUrl,omitempty"`
	IsDeleted       bool       `gorm:"not null;default:false;index" json:"isDeleted"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// FileKeys returns the non-empty storage keys of the four document slots.
func (a *Application) FileKeys() []string {
	keys := make([]string, 0, 4)
	for _, k := range []string{a.PhotoPath, a.FIRPath, a.PaymentPath, a.ApplicationPDF} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// SetFileKey assigns key to the slot named by field. Unknown fields are ignored.
func (a *Application) SetFileKey(field, key string) {
	switch field {
	case FieldPhoto:
		a.PhotoPath = key
	case FieldFIR:
		a.FIRPath = key
	case FieldPayment:
		a.PaymentPath = key
	case FieldApplicationPDF:
		a.ApplicationPDF = key
	}
}

// BeforeCreate hook ensures timestamps and initial status are set.
func (a *Application) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = StatusPending
	}
	return nil
}

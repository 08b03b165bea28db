package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CompanyProfile holds the bidding company's registration identifiers and
// default response boilerplate. The application treats it as a singleton:
// read paths always resolve the oldest row.
type CompanyProfile struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	CompanyName        string          `json:"company_name" db:"company_name"`
	CageCode           string          `json:"cage_code" db:"cage_code"`
	UEI                string          `json:"uei" db:"uei"`
	Certifications     json.RawMessage `json:"certifications" db:"certifications"`
	DefaultBoilerplate json.RawMessage `json:"default_boilerplate" db:"default_boilerplate"`
	ContactName        string          `json:"contact_name" db:"contact_name"`
	ContactEmail       string          `json:"contact_email" db:"contact_email"`
	ContactPhone       string          `json:"contact_phone" db:"contact_phone"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

package models

import "time"

// Cliente is a persisted customer row.
type Cliente struct {
	ID           int       `json:"id"`
	Nombre       string    `json:"nombre"`
	Apellidos    string    `json:"apellidos"`
	DNI          string    `json:"dni"`
	Telefono     string    `json:"telefono"`
	Email        string    `json:"email,omitempty"`
	Direccion    string    `json:"direccion,omitempty"`
	Ciudad       string    `json:"ciudad,omitempty"`
	CodigoPostal string    `json:"codigo_postal,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClienteData is the customer record as captured by the order wizard.
// It lives only in wizard state until submission, where it is embedded
// in the order payload verbatim.
type ClienteData struct {
	Nombre       string `json:"nombre"`
	Apellidos    string `json:"apellidos"`
	DNI          string `json:"dni"`
	Telefono     string `json:"telefono"`
	Email        string `json:"email,omitempty"`
	Direccion    string `json:"direccion,omitempty"`
	Ciudad       string `json:"ciudad,omitempty"`
	CodigoPostal string `json:"codigo_postal,omitempty"`
}

// FormVariant selects which client form fields participate in the
// validity gate. The compact variant ignores address, city and postal
// code entirely.
type FormVariant string

const (
	FullClientForm    FormVariant = "full"
	CompactClientForm FormVariant = "compact"
)

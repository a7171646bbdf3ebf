package models

import "time"

// SugerenciaCliente is one ranked customer suggestion. Tipo is
// 'frecuente' (more than one prior repair) or 'reciente' (exactly one
// repair within the last 30 days).
type SugerenciaCliente struct {
	DNI          string    `json:"dni"`
	Nombre       string    `json:"nombre"`
	Reparaciones int       `json:"reparaciones"`
	UltimaVisita time.Time `json:"ultima_visita"`
	Tipo         string    `json:"tipo"`
	Confianza    int       `json:"confianza"`
}

// SugerenciaDispositivo is one ranked (marca, modelo) suggestion.
// Origen is 'cliente' when drawn from the selected customer's own
// history, 'popular' otherwise.
type SugerenciaDispositivo struct {
	Marca     string `json:"marca"`
	Modelo    string `json:"modelo"`
	Count     int    `json:"count"`
	Origen    string `json:"origen"`
	Confianza int    `json:"confianza"`
}

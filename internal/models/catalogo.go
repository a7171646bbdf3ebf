package models

import "time"

// Marca is a device brand.
type Marca struct {
	ID        int       `json:"id"`
	Nombre    string    `json:"nombre"`
	IconoURL  string    `json:"icono_url,omitempty"`
	Activa    bool      `json:"activa"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateMarcaRequest struct {
	Nombre   string `json:"nombre"`
	IconoURL string `json:"icono_url,omitempty"`
}

// Modelo is a device model scoped to a brand.
type Modelo struct {
	ID        int       `json:"id"`
	MarcaID   int       `json:"marca_id"`
	Nombre    string    `json:"nombre"`
	Anio      *int      `json:"anio,omitempty"`
	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateModeloRequest struct {
	MarcaID int    `json:"marca_id"`
	Nombre  string `json:"nombre"`
	Anio    *int   `json:"anio,omitempty"`
}

// Estado is a repair workflow status.
type Estado struct {
	ID        int       `json:"id"`
	Nombre    string    `json:"nombre"`
	Color     string    `json:"color,omitempty"`
	Orden     int       `json:"orden"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateEstadoRequest struct {
	Nombre string `json:"nombre"`
	Color  string `json:"color,omitempty"`
	Orden  int    `json:"orden"`
}

// Averia is a catalogued fault type.
type Averia struct {
	ID          int       `json:"id"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateAveriaRequest struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
}

// Intervencion is a catalogued repair service or part usable as a
// quote line item.
type Intervencion struct {
	ID          int       `json:"id"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion,omitempty"`
	Precio      float64   `json:"precio"`
	Tipo        string    `json:"tipo"` // 'mano_obra' or 'repuesto'
	AveriaID    *int      `json:"averia_id,omitempty"`
	ModeloID    *int      `json:"modelo_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateIntervencionRequest struct {
	Nombre      string  `json:"nombre"`
	Descripcion string  `json:"descripcion,omitempty"`
	Precio      float64 `json:"precio"`
	Tipo        string  `json:"tipo"`
	AveriaID    *int    `json:"averia_id,omitempty"`
	ModeloID    *int    `json:"modelo_id,omitempty"`
}

// PlantillaReparacion pre-fills a diagnosis with a fault list and
// service metadata.
type PlantillaReparacion struct {
	ID           int       `json:"id"`
	Nombre       string    `json:"nombre"`
	Categoria    string    `json:"categoria"`
	TipoServicio string    `json:"tipo_servicio,omitempty"`
	Averias      []string  `json:"averias"`
	Prioridad    string    `json:"prioridad,omitempty"`
	UsoCount     int       `json:"uso_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// PlantillasResponse is the plantillas listing payload, categories
// included so the client can build its filter bar in one call.
type PlantillasResponse struct {
	Plantillas []PlantillaReparacion `json:"data"`
	Categorias []string              `json:"categorias"`
}

// SugerenciaPlantilla is one ranked template suggestion for a model.
type SugerenciaPlantilla struct {
	Averia    string `json:"averia"`
	Count     int    `json:"count"`
	Confianza int    `json:"confianza"`
	Origen    string `json:"origen"` // 'modelo' or 'cliente'
}

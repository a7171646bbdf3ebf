package models

import (
	"strconv"
	"time"
)

// DispositivoRef identifies a device inside an order. A device loaded
// from the backend carries its row id; a device created inside the
// wizard and not yet persisted carries a temporary UUID instead.
type DispositivoRef struct {
	Kind   DispositivoKind `json:"kind"`
	ID     int             `json:"id,omitempty"`
	TempID string          `json:"temp_id,omitempty"`
}

type DispositivoKind string

const (
	DispositivoPersistido DispositivoKind = "persisted"
	DispositivoBorrador   DispositivoKind = "draft"
)

// Key returns a stable identity string usable as a map key and for
// terminal matching across synchronizations.
func (r DispositivoRef) Key() string {
	if r.Kind == DispositivoPersistido {
		return "p:" + strconv.Itoa(r.ID)
	}
	return "d:" + r.TempID
}

func (r DispositivoRef) Equal(o DispositivoRef) bool {
	return r.Key() == o.Key()
}

// DispositivoGuardado is one device registered in a repair order.
type DispositivoGuardado struct {
	Ref               DispositivoRef `json:"ref"`
	Orden             int            `json:"orden"`
	Marca             string         `json:"marca"`
	Modelo            string         `json:"modelo"`
	Capacidad         string         `json:"capacidad,omitempty"`
	Color             string         `json:"color,omitempty"`
	IMEI              string         `json:"imei"`
	NumeroSerie       string         `json:"numero_serie,omitempty"`
	Observaciones     string         `json:"observaciones,omitempty"`
	RequiereBackup    bool           `json:"requiere_backup,omitempty"`
	PatronDesbloqueo  string         `json:"patron_desbloqueo,omitempty"`
	BackupRealizado   bool           `json:"backup_realizado,omitempty"`
	EstadoDispositivo string         `json:"estado_dispositivo,omitempty"`
	FechaRecepcion    *time.Time     `json:"fecha_recepcion,omitempty"`
	FechaEntrega      *time.Time     `json:"fecha_entrega,omitempty"`
	FechaCreacion     time.Time      `json:"fecha_creacion"`
}

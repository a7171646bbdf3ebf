package wizard

import (
	"taller-backend/internal/models"
	"taller-backend/internal/timeutil"
)

// SyncTerminals rebuilds the terminal list from the current device
// list. Terminals are matched to devices by ref: a match keeps its
// diagnosis, quote and completion flags and only the device payload is
// replaced; an unmatched device gets a fresh empty terminal; terminals
// whose device disappeared are dropped. Running it twice over the same
// device list is a no-op.
func SyncTerminals(devices []models.DispositivoGuardado, prev []models.TerminalCompleto) []models.TerminalCompleto {
	byKey := make(map[string]models.TerminalCompleto, len(prev))
	for _, t := range prev {
		byKey[t.Dispositivo.Ref.Key()] = t
	}

	out := make([]models.TerminalCompleto, 0, len(devices))
	for _, d := range devices {
		if t, ok := byKey[d.Ref.Key()]; ok {
			t.Dispositivo = d
			out = append(out, t)
			continue
		}
		out = append(out, models.TerminalCompleto{
			Dispositivo:             d,
			FechaUltimaModificacion: timeutil.Now(),
		})
	}
	return out
}

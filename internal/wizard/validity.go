package wizard

import (
	"taller-backend/internal/models"
	"taller-backend/internal/validate"
)

// ClienteValido reports whether the client record passes the form's
// validity gate. The compact variant ignores address, city and postal
// code; the required core is identical in both variants.
func ClienteValido(c models.ClienteData, variant models.FormVariant) bool {
	_ = variant // address fields are optional in both variants
	if c.Nombre == "" || c.Apellidos == "" || c.DNI == "" || c.Telefono == "" {
		return false
	}
	return validate.DNI(c.DNI) && validate.Phone(c.Telefono) && validate.Email(c.Email)
}

// DispositivoValido reports whether a device carries the minimum
// required fields to count toward the step guard.
func DispositivoValido(d models.DispositivoGuardado) bool {
	return d.Marca != "" && d.Modelo != "" && d.IMEI != ""
}

// DispositivosValidos reports whether the list is non-empty and every
// device in it is valid.
func DispositivosValidos(devices []models.DispositivoGuardado) bool {
	if len(devices) == 0 {
		return false
	}
	for _, d := range devices {
		if !DispositivoValido(d) {
			return false
		}
	}
	return true
}

// IMEIDuplicado reports whether imei already belongs to another device
// in the order. Devices are compared by ref so editing a device does
// not collide with itself.
func IMEIDuplicado(devices []models.DispositivoGuardado, imei string, self models.DispositivoRef) bool {
	for _, d := range devices {
		if d.Ref.Equal(self) {
			continue
		}
		if d.IMEI != "" && d.IMEI == imei {
			return true
		}
	}
	return false
}

package services

import (
	"context"
	"errors"
	"strings"

	"taller-backend/internal/models"
	"taller-backend/internal/repositories"
	"taller-backend/internal/validate"
)

var ErrClienteInvalido = errors.New("datos de cliente invalidos")

type ClienteService struct {
	repo *repositories.ClienteRepository
}

func NewClienteService(repo *repositories.ClienteRepository) *ClienteService {
	return &ClienteService{repo: repo}
}

func (s *ClienteService) Get(ctx context.Context, id int) (*models.Cliente, error) {
	return s.repo.Get(ctx, id)
}

// Buscar looks a customer up by exactly one identifying field, in
// priority order dni > telefono > email.
func (s *ClienteService) Buscar(ctx context.Context, dni, telefono, email string) (*models.Cliente, error) {
	switch {
	case dni != "":
		return s.repo.GetByDNI(ctx, strings.ToUpper(strings.TrimSpace(dni)))
	case telefono != "":
		return s.repo.GetByTelefono(ctx, strings.TrimSpace(telefono))
	case email != "":
		return s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	}
	return nil, errors.New("se requiere dni, telefono o email")
}

func (s *ClienteService) BuscarPorNombre(ctx context.Context, term string) ([]*models.Cliente, error) {
	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return nil, errors.New("el termino de busqueda necesita al menos 2 caracteres")
	}
	return s.repo.SearchByNombre(ctx, term)
}

// Guardar validates and upserts a customer keyed by DNI.
func (s *ClienteService) Guardar(ctx context.Context, c *models.Cliente) error {
	c.Nombre = strings.TrimSpace(c.Nombre)
	c.Apellidos = strings.TrimSpace(c.Apellidos)
	c.DNI = strings.ToUpper(strings.TrimSpace(c.DNI))
	if c.Nombre == "" || c.Apellidos == "" {
		return ErrClienteInvalido
	}
	if !validate.DNI(c.DNI) {
		return ErrClienteInvalido
	}
	if !validate.Phone(c.Telefono) {
		return ErrClienteInvalido
	}
	if !validate.Email(c.Email) {
		return ErrClienteInvalido
	}
	return s.repo.Upsert(ctx, c)
}

package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taller-backend/internal/models"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO users(name, email, password_hash, role, is_active)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.IsActive,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, is_active, totp_enabled, created_at, updated_at
         FROM users WHERE id=$1`, id)

	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.TOTPEnabled,
		&u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, is_active, totp_enabled, created_at, updated_at
         FROM users WHERE email=$1`, email)

	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.TOTPEnabled,
		&u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (r *UserRepository) GetTOTPSecret(ctx context.Context, id int) (string, error) {
	var secret string
	err := r.DB.QueryRow(ctx, `SELECT COALESCE(totp_secret, '') FROM users WHERE id=$1`, id).Scan(&secret)
	return secret, err
}

func (r *UserRepository) SetTOTPSecret(ctx context.Context, id int, secret string, enabled bool) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET totp_secret=$1, totp_enabled=$2, updated_at=CURRENT_TIMESTAMP WHERE id=$3`,
		secret, enabled, id)
	return err
}

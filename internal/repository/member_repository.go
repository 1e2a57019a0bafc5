package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/perpusku/library-engine/internal/domain"
	apperrors "github.com/perpusku/library-engine/pkg/errors"
)

type memberRepository struct {
	db *sqlx.DB
}

func NewMemberRepository(db *sqlx.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	query := `
		INSERT INTO members (id, name, role, kelas, nis, contact, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		member.ID,
		member.Name,
		member.Role,
		member.Kelas,
		member.NIS,
		member.Contact,
		member.CreatedAt,
		member.UpdatedAt,
	)

	return err
}

func (r *memberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	query := `
		SELECT id, name, role, kelas, nis, contact, created_at, updated_at
		FROM members
		WHERE id = $1
	`

	var member domain.Member
	err := r.db.GetContext(ctx, &member, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}

	return &member, nil
}

func (r *memberRepository) List(ctx context.Context, search string) ([]*domain.Member, error) {
	query := `
		SELECT id, name, role, kelas, nis, contact, created_at, updated_at
		FROM members
	`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR kelas ILIKE $1 OR nis ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name`

	var members []*domain.Member
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, err
	}

	return members, nil
}

func (r *memberRepository) ListByKelas(ctx context.Context, kelas string) ([]*domain.Member, error) {
	query := `
		SELECT id, name, role, kelas, nis, contact, created_at, updated_at
		FROM members
		WHERE kelas = $1 AND role = $2
		ORDER BY name
	`

	var members []*domain.Member
	if err := r.db.SelectContext(ctx, &members, query, kelas, domain.RoleMember); err != nil {
		return nil, err
	}

	return members, nil
}

func (r *memberRepository) Update(ctx context.Context, member *domain.Member) error {
	query := `
		UPDATE members
		SET name = $2, kelas = $3, contact = $4, updated_at = $5
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		member.ID,
		member.Name,
		member.Kelas,
		member.Contact,
		member.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.ErrMemberNotFound
	}

	return nil
}

func (r *memberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.ErrMemberNotFound
	}

	return nil
}

func (r *memberRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM members WHERE role = $1`, domain.RoleMember)
	return count, err
}

package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
	"github.com/Vardandatasciences/riskavaire-access/internal/core/port"
	"github.com/Vardandatasciences/riskavaire-access/internal/repository"
)

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *UserRepository) applyFilter(query squirrel.SelectBuilder, filter port.UserFilter) squirrel.SelectBuilder {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"display_name": pattern},
			squirrel.ILike{"id": pattern},
		})
	}
	if filter.Department != "" {
		query = query.Where(squirrel.Eq{"department": filter.Department})
	}
	if !filter.IncludeInactive {
		query = query.Where(squirrel.Eq{"is_active": true})
	}
	return query
}

// List returns one page of users matching the filter plus the total match count.
func (r *UserRepository) List(ctx context.Context, filter port.UserFilter) ([]domain.User, int, error) {
	countQuery := r.applyFilter(r.builder.Select("COUNT(*)").From("access.users"), filter)

	stmt, args, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count users sql: %w", err)
	}

	var total int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize

	pageQuery := r.applyFilter(
		r.builder.Select("id", "display_name", "department", "role", "is_active", "created_at").
			From("access.users"),
		filter,
	).
		OrderBy("display_name ASC", "id ASC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset))

	stmt, args, err = pageQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list users sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0, filter.PageSize)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.DisplayName,
			&user.Department,
			&user.Role,
			&user.IsActive,
			&user.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return users, total, nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select("id", "display_name", "department", "role", "is_active", "created_at").
		From("access.users").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	var user domain.User
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&user.ID,
		&user.DisplayName,
		&user.Department,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &user, nil
}

var _ port.UserRepository = (*UserRepository)(nil)

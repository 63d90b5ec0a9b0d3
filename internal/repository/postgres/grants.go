package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
	"github.com/Vardandatasciences/riskavaire-access/internal/core/port"
	"github.com/Vardandatasciences/riskavaire-access/internal/repository"
)

// GrantRepository implements port.GrantRepository using PostgreSQL.
//
// Writes for the same user are serialized by a row lock on the user's
// access.grant_revisions row, taken inside the write transaction. Writes for
// different users touch different rows and proceed in parallel.
type GrantRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewGrantRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewGrantRepository(exec pgExecutor) *GrantRepository {
	return &GrantRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetGrants returns the stored (sparse) grants and revision for the user.
func (r *GrantRepository) GetGrants(ctx context.Context, userID string) (domain.UserGrants, error) {
	result := domain.UserGrants{UserID: userID, Grants: make(domain.GrantSet)}

	stmt, args, err := r.builder.
		Select("module", "field", "granted").
		From("access.user_grants").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build select grants sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return result, fmt.Errorf("query grants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			module  string
			field   string
			granted bool
		)
		if err := rows.Scan(&module, &field, &granted); err != nil {
			return result, fmt.Errorf("scan grant: %w", err)
		}
		result.Grants.Set(module, field, granted)
	}

	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("iterate grants: %w", err)
	}

	stmt, args, err = r.builder.
		Select("revision").
		From("access.grant_revisions").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build select revision sql: %w", err)
	}

	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&result.Revision); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			result.Revision = 0
			return result, nil
		}
		return result, fmt.Errorf("scan revision: %w", err)
	}

	return result, nil
}

// SetGrants merges delta into the user's grants and bumps the revision, all in
// one transaction. Either the full delta applies or none of it does.
func (r *GrantRepository) SetGrants(ctx context.Context, userID string, delta domain.GrantSet, expectedRevision *int64) (int64, error) {
	tx, err := r.exec.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin grants tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	stmt, args, err := r.builder.
		Insert("access.grant_revisions").
		Columns("user_id", "revision").
		Values(userID, 0).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build seed revision sql: %w", err)
	}
	if _, err := tx.Exec(ctx, stmt, args...); err != nil {
		return 0, fmt.Errorf("seed revision row: %w", err)
	}

	// The FOR UPDATE lock is the per-user write mutex.
	stmt, args, err = r.builder.
		Select("revision").
		From("access.grant_revisions").
		Where(squirrel.Eq{"user_id": userID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build lock revision sql: %w", err)
	}

	var current int64
	if err := tx.QueryRow(ctx, stmt, args...).Scan(&current); err != nil {
		return 0, fmt.Errorf("lock revision row: %w", err)
	}

	if expectedRevision != nil && *expectedRevision != current {
		return 0, repository.ErrRevisionMismatch
	}

	now := time.Now().UTC()
	insert := r.builder.
		Insert("access.user_grants").
		Columns("user_id", "module", "field", "granted", "updated_at")

	for _, entry := range flatten(delta) {
		insert = insert.Values(userID, entry.module, entry.field, entry.granted, now)
	}

	stmt, args, err = insert.
		Suffix("ON CONFLICT (user_id, module, field) DO UPDATE SET granted = EXCLUDED.granted, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build upsert grants sql: %w", err)
	}
	if _, err := tx.Exec(ctx, stmt, args...); err != nil {
		return 0, fmt.Errorf("upsert grants: %w", err)
	}

	stmt, args, err = r.builder.
		Update("access.grant_revisions").
		Set("revision", squirrel.Expr("revision + 1")).
		Where(squirrel.Eq{"user_id": userID}).
		Suffix("RETURNING revision").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build bump revision sql: %w", err)
	}

	var newRevision int64
	if err := tx.QueryRow(ctx, stmt, args...).Scan(&newRevision); err != nil {
		return 0, fmt.Errorf("bump revision: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit grants tx: %w", err)
	}

	return newRevision, nil
}

type grantEntry struct {
	module  string
	field   string
	granted bool
}

// flatten orders delta entries by module then field so generated SQL is
// deterministic.
func flatten(delta domain.GrantSet) []grantEntry {
	entries := make([]grantEntry, 0, len(delta))
	for module, fields := range delta {
		for field, granted := range fields {
			entries = append(entries, grantEntry{module: module, field: field, granted: granted})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].module != entries[j].module {
			return entries[i].module < entries[j].module
		}
		return entries[i].field < entries[j].field
	})
	return entries
}

var _ port.GrantRepository = (*GrantRepository)(nil)

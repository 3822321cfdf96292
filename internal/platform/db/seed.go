package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"schoolpay/internal/domain/auth"
	"schoolpay/internal/platform/config"
)

// Seed makes sure the default school tenant, the permission catalogue, the
// built-in roles and the bootstrap administrator exist. It is safe to rerun.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tenantID, err := seedTenant(ctx, tx, cfg.SeedTenantName)
	if err != nil {
		return fmt.Errorf("seed tenant: %w", err)
	}

	permIDs, err := seedPermissions(ctx, tx)
	if err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}

	roleIDs := make(map[string]string, len(auth.RolePermissions))
	for roleName, perms := range auth.RolePermissions {
		roleID, err := seedRole(ctx, tx, tenantID, roleName)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", roleName, err)
		}
		roleIDs[roleName] = roleID
		for _, key := range perms {
			permID, ok := permIDs[key]
			if !ok {
				return errors.New("permission not found: " + key)
			}
			if _, err := tx.Exec(ctx, "INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", roleID, permID); err != nil {
				return err
			}
		}
	}

	if err := seedAdmin(ctx, tx, tenantID, roleIDs[auth.RoleAdmin], cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	return tx.Commit(ctx)
}

func seedTenant(ctx context.Context, tx pgx.Tx, name string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	err = tx.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id)
	return id, err
}

func seedPermissions(ctx context.Context, tx pgx.Tx) (map[string]string, error) {
	for _, key := range auth.DefaultPermissions {
		if _, err := tx.Exec(ctx, "INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO NOTHING", key); err != nil {
			return nil, err
		}
	}

	rows, err := tx.Query(ctx, "SELECT id, key FROM permissions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := map[string]string{}
	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			return nil, err
		}
		ids[key] = id
	}
	return ids, rows.Err()
}

func seedRole(ctx context.Context, tx pgx.Tx, tenantID, name string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
    INSERT INTO roles (tenant_id, name) VALUES ($1, $2)
    ON CONFLICT (tenant_id, name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, tenantID, name).Scan(&id)
	return id, err
}

func seedAdmin(ctx context.Context, tx pgx.Tx, tenantID, roleID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := tx.QueryRow(ctx, "SELECT id FROM users WHERE tenant_id = $1 AND lower(email) = lower($2)", tenantID, email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "INSERT INTO users (tenant_id, email, password_hash, role_id) VALUES ($1, $2, $3, $4)", tenantID, email, hash, roleID)
	return err
}

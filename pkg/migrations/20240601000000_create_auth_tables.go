package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		return execAll(db,
			`CREATE TABLE roles (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				is_system BOOLEAN NOT NULL DEFAULT FALSE
			)`,
			`CREATE UNIQUE INDEX ux_roles_name ON roles (name COLLATE NOCASE)`,
			`CREATE TABLE permissions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				role_id INTEGER REFERENCES roles (id) ON DELETE CASCADE NOT NULL,
				resource TEXT NOT NULL,
				operation TEXT NOT NULL
			)`,
			`CREATE UNIQUE INDEX ux_permissions_role_resource_operation ON permissions (role_id, resource, operation)`,
			`CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				username TEXT NOT NULL,
				email TEXT,
				password_hash TEXT NOT NULL,
				role_id INTEGER REFERENCES roles (id) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			)`,
			`CREATE UNIQUE INDEX ux_users_username ON users (username COLLATE NOCASE)`,
			`CREATE UNIQUE INDEX ux_users_email ON users (email COLLATE NOCASE) WHERE email IS NOT NULL`,
			`INSERT INTO roles (name, is_system) VALUES ('admin', TRUE), ('librarian', TRUE), ('member', TRUE)`,
			`INSERT INTO permissions (role_id, resource, operation)
				SELECT r.id, p.resource, p.operation FROM roles r
				JOIN (
					SELECT 'catalog' AS resource, 'read' AS operation UNION ALL
					SELECT 'catalog', 'write' UNION ALL
					SELECT 'loans', 'read' UNION ALL
					SELECT 'loans', 'write' UNION ALL
					SELECT 'users', 'read' UNION ALL
					SELECT 'users', 'write'
				) p
				WHERE r.name = 'admin'`,
			`INSERT INTO permissions (role_id, resource, operation)
				SELECT r.id, p.resource, p.operation FROM roles r
				JOIN (
					SELECT 'catalog' AS resource, 'read' AS operation UNION ALL
					SELECT 'catalog', 'write' UNION ALL
					SELECT 'loans', 'read' UNION ALL
					SELECT 'loans', 'write' UNION ALL
					SELECT 'users', 'read'
				) p
				WHERE r.name = 'librarian'`,
			`INSERT INTO permissions (role_id, resource, operation)
				SELECT r.id, p.resource, p.operation FROM roles r
				JOIN (
					SELECT 'catalog' AS resource, 'read' AS operation UNION ALL
					SELECT 'loans', 'read'
				) p
				WHERE r.name = 'member'`,
		)
	}

	down := func(_ context.Context, db *bun.DB) error {
		return execAll(db,
			"DROP TABLE IF EXISTS users",
			"DROP TABLE IF EXISTS permissions",
			"DROP TABLE IF EXISTS roles",
		)
	}

	Migrations.MustRegister(up, down)
}

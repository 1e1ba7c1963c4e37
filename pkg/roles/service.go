package roles

import (
	"context"
	"database/sql"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/uptrace/bun"
)

// ValidResources contains all valid resource names.
var ValidResources = []string{
	models.ResourceCatalog,
	models.ResourceLoans,
	models.ResourceUsers,
}

// ValidOperations contains all valid operation names.
var ValidOperations = []string{
	models.OperationRead,
	models.OperationWrite,
}

// Service handles role operations.
type Service struct {
	db *bun.DB
}

// NewService creates a new roles service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

func validatePermission(resource, operation string) error {
	if !lo.Contains(ValidResources, resource) {
		return errcodes.ValidationError("Invalid resource: " + resource)
	}
	if !lo.Contains(ValidOperations, operation) {
		return errcodes.ValidationError("Invalid operation: " + operation)
	}
	return nil
}

func validatePermissions(permissions []PermissionInput) error {
	for _, p := range permissions {
		if err := validatePermission(p.Resource, p.Operation); err != nil {
			return err
		}
	}
	return nil
}

func insertPermissions(ctx context.Context, tx bun.Tx, roleID int, permissions []PermissionInput) error {
	unique := lo.UniqBy(permissions, func(p PermissionInput) string {
		return p.Resource + ":" + p.Operation
	})
	if len(unique) == 0 {
		return nil
	}
	perms := lo.Map(unique, func(p PermissionInput, _ int) *models.Permission {
		return &models.Permission{
			RoleID:    roleID,
			Resource:  p.Resource,
			Operation: p.Operation,
		}
	})
	_, err := tx.NewInsert().Model(&perms).Exec(ctx)
	return errors.WithStack(err)
}

// Create creates a new role.
func (s *Service) Create(ctx context.Context, name string, permissions []PermissionInput) (*models.Role, error) {
	exists, err := s.db.NewSelect().
		Model((*models.Role)(nil)).
		Where("name = ? COLLATE NOCASE", name).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errcodes.Conflict("Role name already exists")
	}

	if err := validatePermissions(permissions); err != nil {
		return nil, err
	}

	now := time.Now()
	role := &models.Role{
		CreatedAt: now,
		UpdatedAt: now,
		Name:      name,
		IsSystem:  false,
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(role).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
		return insertPermissions(ctx, tx, role.ID, permissions)
	})
	if err != nil {
		return nil, err
	}

	return s.Retrieve(ctx, role.ID)
}

// Retrieve gets a role by ID.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.Role, error) {
	role := &models.Role{}
	err := s.db.NewSelect().
		Model(role).
		Relation("Permissions").
		Where("r.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Role")
		}
		return nil, errors.WithStack(err)
	}
	return role, nil
}

// ListOptions contains options for listing roles.
type ListOptions struct {
	Limit  int
	Offset int
}

// List returns a paginated list of roles.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.Role, int, error) {
	roles := []*models.Role{}

	query := s.db.NewSelect().
		Model(&roles).
		Relation("Permissions").
		Order("r.id ASC")

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return roles, total, nil
}

// Update updates a role's name and/or permissions.
func (s *Service) Update(ctx context.Context, id int, name *string, permissions *[]PermissionInput) (*models.Role, error) {
	role, err := s.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}

	if role.IsSystem && name != nil && *name != role.Name {
		return nil, errcodes.Forbidden("Cannot rename system roles")
	}

	if name != nil && *name != role.Name {
		exists, err := s.db.NewSelect().
			Model((*models.Role)(nil)).
			Where("name = ? COLLATE NOCASE", *name).
			Where("id != ?", id).
			Exists(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if exists {
			return nil, errcodes.Conflict("Role name already exists")
		}
	}

	if permissions != nil {
		if err := validatePermissions(*permissions); err != nil {
			return nil, err
		}
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if name != nil && *name != role.Name {
			role.Name = *name
			role.UpdatedAt = time.Now()
			_, err := tx.NewUpdate().
				Model(role).
				Column("name", "updated_at").
				WherePK().
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		if permissions == nil {
			return nil
		}

		_, err := tx.NewDelete().
			Model((*models.Permission)(nil)).
			Where("role_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		return insertPermissions(ctx, tx, id, *permissions)
	})
	if err != nil {
		return nil, err
	}

	return s.Retrieve(ctx, id)
}

// Delete deletes a non-system role.
func (s *Service) Delete(ctx context.Context, id int) error {
	role, err := s.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	if role.IsSystem {
		return errcodes.Forbidden("Cannot delete system roles")
	}

	count, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("role_id = ?", id).
		Count(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if count > 0 {
		return errcodes.Conflict("Cannot delete role that is assigned to users")
	}

	// Permissions are deleted via CASCADE.
	_, err = s.db.NewDelete().
		Model((*models.Role)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

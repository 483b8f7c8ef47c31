// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"context"
	"database/sql"
	"errors"

	"github.com/relabs-tech/fanpages/core/csql"
)

const (
	// roleColumns must be used with the table aliased r
	roleColumns = `r.role_id, r.name, r.description, r.status`

	insertRoleQuery = `INSERT INTO ` + tableRole + ` (name, description, status)
VALUES ($1, $2, $3) RETURNING role_id;`
	readRoleQuery   = `SELECT ` + roleColumns + ` FROM ` + tableRole + ` r WHERE r.role_id = $1;`
	listRolesQuery  = `SELECT ` + roleColumns + ` FROM ` + tableRole + ` r ORDER BY r.role_id LIMIT $1 OFFSET $2;`
	updateRoleQuery = `UPDATE ` + tableRole + ` SET name = $2, description = $3, status = $4 WHERE role_id = $1;`
	deleteRoleQuery = `DELETE FROM ` + tableRole + ` WHERE role_id = $1;`
)

func (b *Backend) roleResource() *resource[RoleCreate, Role] {
	return &resource[RoleCreate, Role]{
		name:      "role",
		path:      "/roles",
		schemaID:  "https://fanpages.dev/schemas/role.json",
		paginated: true,
		create:    insertRole,
		read:      readRole,
		list:      listRoles,
		update:    updateRole,
		delete:    deleteRole,
	}
}

func insertRole(ctx context.Context, tx *sql.Tx, r *RoleCreate) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, insertRoleQuery, r.Name, r.Description, r.Status).Scan(&id)
	return id, err
}

func roleDestinations(r *Role) []interface{} {
	return []interface{}{&r.RoleID, &r.Name, &r.Description, &r.Status}
}

func scanRole(row scanner) (Role, error) {
	var r Role
	err := row.Scan(roleDestinations(&r)...)
	return r, err
}

func readRole(ctx context.Context, tx *sql.Tx, id int64) (Role, error) {
	r, err := scanRole(tx.QueryRowContext(ctx, readRoleQuery, id))
	if errors.Is(err, csql.ErrNoRows) {
		return r, ErrNotFound
	}
	return r, err
}

func listRoles(ctx context.Context, tx *sql.Tx, w window) ([]Role, error) {
	rows, err := tx.QueryContext(ctx, listRolesQuery, w.limit, w.skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roles := []Role{}
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func updateRole(ctx context.Context, tx *sql.Tx, id int64, r *RoleCreate) error {
	res, err := tx.ExecContext(ctx, updateRoleQuery, id, r.Name, r.Description, r.Status)
	return affectedOne(res, err)
}

func deleteRole(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, deleteRoleQuery, id)
	return affectedOne(res, err)
}

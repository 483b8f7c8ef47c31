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
	"fmt"
	"strings"

	"github.com/relabs-tech/fanpages/core/csql"
)

// roleFanPageSelect loads an assignment together with its person (and the person's
// user), its fan page and its role in one query
const roleFanPageSelect = `SELECT a.role_fan_page_id, a.person_id, a.fan_page_id, a.role_id, a.status,
` + personColumns + `,
` + fanPageColumns + `,
` + roleColumns + `
FROM ` + tableRoleFanPage + ` a
JOIN ` + tablePerson + ` p ON p.person_id = a.person_id
JOIN ` + tableUser + ` u ON u.user_id = p.user_id
JOIN ` + tableFanPage + ` f ON f.fan_page_id = a.fan_page_id
JOIN ` + tableRole + ` r ON r.role_id = a.role_id`

const (
	readRoleFanPageQuery  = roleFanPageSelect + ` WHERE a.role_fan_page_id = $1;`
	listRoleFanPagesQuery = roleFanPageSelect + ` ORDER BY a.role_fan_page_id;`

	relatedExistQuery = `SELECT
EXISTS(SELECT 1 FROM ` + tablePerson + ` WHERE person_id = $1),
EXISTS(SELECT 1 FROM ` + tableFanPage + ` WHERE fan_page_id = $2),
EXISTS(SELECT 1 FROM ` + tableRole + ` WHERE role_id = $3);`

	insertRoleFanPageQuery = `INSERT INTO ` + tableRoleFanPage + ` (person_id, fan_page_id, role_id, status)
VALUES ($1, $2, $3, $4) RETURNING role_fan_page_id;`
	lockRoleFanPageQuery   = `SELECT role_fan_page_id FROM ` + tableRoleFanPage + ` WHERE role_fan_page_id = $1 FOR UPDATE;`
	updateRoleFanPageQuery = `UPDATE ` + tableRoleFanPage + ` SET person_id = $2, fan_page_id = $3, role_id = $4, status = $5
WHERE role_fan_page_id = $1;`
	deleteRoleFanPageQuery = `DELETE FROM ` + tableRoleFanPage + ` WHERE role_fan_page_id = $1;`
)

func (b *Backend) roleFanPageResource() *resource[RoleFanPageCreate, RoleFanPage] {
	return &resource[RoleFanPageCreate, RoleFanPage]{
		name:     "role_fan_page",
		path:     "/rol_fan_pages",
		schemaID: "https://fanpages.dev/schemas/role_fan_page.json",
		create:   insertRoleFanPage,
		read:     readRoleFanPage,
		list:     listRoleFanPages,
		update:   updateRoleFanPage,
		delete:   deleteRoleFanPage,
	}
}

// checkRelated verifies that the person, fan page and role of an assignment exist.
// It returns an error wrapping ErrRelatedNotFound which names every missing entity.
func checkRelated(ctx context.Context, tx *sql.Tx, a *RoleFanPageCreate) error {
	var personExists, fanPageExists, roleExists bool
	err := tx.QueryRowContext(ctx, relatedExistQuery, a.PersonID, a.FanPageID, a.RoleID).
		Scan(&personExists, &fanPageExists, &roleExists)
	if err != nil {
		return err
	}
	var missing []string
	if !personExists {
		missing = append(missing, fmt.Sprintf("person %d", a.PersonID))
	}
	if !fanPageExists {
		missing = append(missing, fmt.Sprintf("fan page %d", a.FanPageID))
	}
	if !roleExists {
		missing = append(missing, fmt.Sprintf("role %d", a.RoleID))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrRelatedNotFound, strings.Join(missing, ", "))
	}
	return nil
}

// relatedViolation maps a foreign key violation to ErrRelatedNotFound. This only
// happens if a related entity was deleted between the check and the write.
func relatedViolation(err error) error {
	if csql.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: %v", ErrRelatedNotFound, err)
	}
	return err
}

func insertRoleFanPage(ctx context.Context, tx *sql.Tx, a *RoleFanPageCreate) (int64, error) {
	if err := checkRelated(ctx, tx, a); err != nil {
		return 0, err
	}
	var id int64
	err := tx.QueryRowContext(ctx, insertRoleFanPageQuery, a.PersonID, a.FanPageID, a.RoleID, a.Status).Scan(&id)
	return id, relatedViolation(err)
}

// updateRoleFanPage locks the assignment, validates the new references and
// overwrites all fields. A missing assignment takes precedence over missing
// related entities.
func updateRoleFanPage(ctx context.Context, tx *sql.Tx, id int64, a *RoleFanPageCreate) error {
	var locked int64
	err := tx.QueryRowContext(ctx, lockRoleFanPageQuery, id).Scan(&locked)
	if errors.Is(err, csql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err = checkRelated(ctx, tx, a); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, updateRoleFanPageQuery, id, a.PersonID, a.FanPageID, a.RoleID, a.Status)
	return affectedOne(res, relatedViolation(err))
}

func scanRoleFanPage(row scanner) (RoleFanPage, error) {
	var a RoleFanPage
	dest := []interface{}{&a.RoleFanPageID, &a.PersonID, &a.FanPageID, &a.RoleID, &a.Status}
	dest = append(dest, personDestinations(&a.Person)...)
	dest = append(dest, fanPageDestinations(&a.FanPage)...)
	dest = append(dest, roleDestinations(&a.Role)...)
	err := row.Scan(dest...)
	return a, err
}

func readRoleFanPage(ctx context.Context, tx *sql.Tx, id int64) (RoleFanPage, error) {
	a, err := scanRoleFanPage(tx.QueryRowContext(ctx, readRoleFanPageQuery, id))
	if errors.Is(err, csql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

// listRoleFanPages returns all assignments. The list is not windowed.
func listRoleFanPages(ctx context.Context, tx *sql.Tx, _ window) ([]RoleFanPage, error) {
	rows, err := tx.QueryContext(ctx, listRoleFanPagesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	assignments := []RoleFanPage{}
	for rows.Next() {
		a, err := scanRoleFanPage(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func deleteRoleFanPage(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, deleteRoleFanPageQuery, id)
	return affectedOne(res, err)
}

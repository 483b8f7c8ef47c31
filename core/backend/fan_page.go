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
	// fanPageColumns must be used with the table aliased f
	fanPageColumns = `f.fan_page_id, f.name, f.description, f.profile_picture, f.created_on, f.status`

	insertFanPageQuery = `INSERT INTO ` + tableFanPage + ` (name, description, profile_picture, created_on, status)
VALUES ($1, $2, $3, $4, $5) RETURNING fan_page_id;`
	readFanPageQuery   = `SELECT ` + fanPageColumns + ` FROM ` + tableFanPage + ` f WHERE f.fan_page_id = $1;`
	listFanPagesQuery  = `SELECT ` + fanPageColumns + ` FROM ` + tableFanPage + ` f ORDER BY f.fan_page_id LIMIT $1 OFFSET $2;`
	updateFanPageQuery = `UPDATE ` + tableFanPage + ` SET name = $2, description = $3, profile_picture = $4,
created_on = $5, status = $6 WHERE fan_page_id = $1;`
	deleteFanPageQuery = `DELETE FROM ` + tableFanPage + ` WHERE fan_page_id = $1;`
)

func (b *Backend) fanPageResource() *resource[FanPageCreate, FanPage] {
	return &resource[FanPageCreate, FanPage]{
		name:      "fan_page",
		path:      "/fan_pages",
		schemaID:  "https://fanpages.dev/schemas/fan_page.json",
		paginated: true,
		create:    insertFanPage,
		read:      readFanPage,
		list:      listFanPages,
		update:    updateFanPage,
		delete:    deleteFanPage,
	}
}

func insertFanPage(ctx context.Context, tx *sql.Tx, f *FanPageCreate) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, insertFanPageQuery,
		f.Name, f.Description, f.ProfilePicture, f.CreatedOn, f.Status).Scan(&id)
	return id, err
}

func fanPageDestinations(f *FanPage) []interface{} {
	return []interface{}{&f.FanPageID, &f.Name, &f.Description, &f.ProfilePicture, &f.CreatedOn, &f.Status}
}

func scanFanPage(row scanner) (FanPage, error) {
	var f FanPage
	err := row.Scan(fanPageDestinations(&f)...)
	return f, err
}

func readFanPage(ctx context.Context, tx *sql.Tx, id int64) (FanPage, error) {
	f, err := scanFanPage(tx.QueryRowContext(ctx, readFanPageQuery, id))
	if errors.Is(err, csql.ErrNoRows) {
		return f, ErrNotFound
	}
	return f, err
}

func listFanPages(ctx context.Context, tx *sql.Tx, w window) ([]FanPage, error) {
	rows, err := tx.QueryContext(ctx, listFanPagesQuery, w.limit, w.skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	fanPages := []FanPage{}
	for rows.Next() {
		f, err := scanFanPage(rows)
		if err != nil {
			return nil, err
		}
		fanPages = append(fanPages, f)
	}
	return fanPages, rows.Err()
}

func updateFanPage(ctx context.Context, tx *sql.Tx, id int64, f *FanPageCreate) error {
	res, err := tx.ExecContext(ctx, updateFanPageQuery, id,
		f.Name, f.Description, f.ProfilePicture, f.CreatedOn, f.Status)
	return affectedOne(res, err)
}

func deleteFanPage(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, deleteFanPageQuery, id)
	return affectedOne(res, err)
}

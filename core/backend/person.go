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

// personColumns selects a person together with the public fields of its user.
// Both tables must be aliased p and u.
const personColumns = `p.person_id, p.first_name, p.middle_name, p.last_name, p.second_last_name,
p.birth_date, p.sex, p.profile_picture, p.cover_picture, p.user_id,
u.user_id, u.alias, u.email, u.status`

const (
	insertPersonQuery = `INSERT INTO ` + tablePerson + ` (first_name, middle_name, last_name, second_last_name,
birth_date, sex, profile_picture, cover_picture, user_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING person_id;`
	readPersonQuery = `SELECT ` + personColumns + ` FROM ` + tablePerson + ` p
JOIN ` + tableUser + ` u ON u.user_id = p.user_id
WHERE p.person_id = $1;`
	listPersonsQuery = `SELECT ` + personColumns + ` FROM ` + tablePerson + ` p
JOIN ` + tableUser + ` u ON u.user_id = p.user_id
ORDER BY p.person_id LIMIT $1 OFFSET $2;`
	updatePersonQuery = `UPDATE ` + tablePerson + ` SET first_name = $2, middle_name = $3, last_name = $4,
second_last_name = $5, birth_date = $6, sex = $7, profile_picture = $8, cover_picture = $9, user_id = $10
WHERE person_id = $1;`
	deletePersonQuery = `DELETE FROM ` + tablePerson + ` WHERE person_id = $1;`
)

func (b *Backend) personResource() *resource[PersonCreate, Person] {
	return &resource[PersonCreate, Person]{
		name:      "person",
		path:      "/personas",
		schemaID:  "https://fanpages.dev/schemas/person.json",
		paginated: true,
		create:    insertPerson,
		read:      readPerson,
		list:      listPersons,
		update:    updatePerson,
		delete:    deletePerson,
	}
}

// insertPerson does not look up the user. A dangling user_id is rejected by
// the foreign key.
func insertPerson(ctx context.Context, tx *sql.Tx, p *PersonCreate) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, insertPersonQuery,
		p.FirstName, p.MiddleName, p.LastName, p.SecondLastName,
		p.BirthDate, p.Sex, p.ProfilePicture, p.CoverPicture, p.UserID).Scan(&id)
	return id, err
}

// personDestinations returns the scan destinations matching personColumns
func personDestinations(p *Person) []interface{} {
	return []interface{}{
		&p.PersonID, &p.FirstName, &p.MiddleName, &p.LastName, &p.SecondLastName,
		&p.BirthDate, &p.Sex, &p.ProfilePicture, &p.CoverPicture, &p.UserID,
		&p.User.UserID, &p.User.Alias, &p.User.Email, &p.User.Status,
	}
}

func scanPerson(row scanner) (Person, error) {
	var p Person
	err := row.Scan(personDestinations(&p)...)
	return p, err
}

func readPerson(ctx context.Context, tx *sql.Tx, id int64) (Person, error) {
	p, err := scanPerson(tx.QueryRowContext(ctx, readPersonQuery, id))
	if errors.Is(err, csql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func listPersons(ctx context.Context, tx *sql.Tx, w window) ([]Person, error) {
	rows, err := tx.QueryContext(ctx, listPersonsQuery, w.limit, w.skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	persons := []Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

func updatePerson(ctx context.Context, tx *sql.Tx, id int64, p *PersonCreate) error {
	res, err := tx.ExecContext(ctx, updatePersonQuery, id,
		p.FirstName, p.MiddleName, p.LastName, p.SecondLastName,
		p.BirthDate, p.Sex, p.ProfilePicture, p.CoverPicture, p.UserID)
	return affectedOne(res, err)
}

func deletePerson(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, deletePersonQuery, id)
	return affectedOne(res, err)
}

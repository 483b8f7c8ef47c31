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

	"golang.org/x/crypto/bcrypt"

	"github.com/relabs-tech/fanpages/core/csql"
)

const (
	userColumns = `user_id, alias, email, status`

	insertUserQuery = `INSERT INTO ` + tableUser + ` (alias, email, password_hash, status)
VALUES ($1, $2, $3, $4) RETURNING user_id;`
	readUserQuery  = `SELECT ` + userColumns + ` FROM ` + tableUser + ` WHERE user_id = $1;`
	listUsersQuery = `SELECT ` + userColumns + ` FROM ` + tableUser + ` ORDER BY user_id LIMIT $1 OFFSET $2;`
	updateUserQuery = `UPDATE ` + tableUser + ` SET alias = $2, email = $3, password_hash = $4, status = $5
WHERE user_id = $1;`
	deleteUserQuery = `DELETE FROM ` + tableUser + ` WHERE user_id = $1;`
)

func (b *Backend) userResource() *resource[UserCreate, User] {
	return &resource[UserCreate, User]{
		name:      "user",
		path:      "/users",
		schemaID:  "https://fanpages.dev/schemas/user.json",
		paginated: true,
		prepare:   b.hashPassword,
		create:    insertUser,
		read:      readUser,
		list:      listUsers,
		update:    updateUser,
		delete:    deleteUser,
	}
}

// bcrypt refuses longer passwords
const maxPasswordBytes = 72

// hashPassword replaces the clear text password with its bcrypt hash
func (b *Backend) hashPassword(u *UserCreate) error {
	if len(u.Password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must not exceed %d bytes", ErrInvalidPayload, maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), b.passwordCost)
	if err != nil {
		return fmt.Errorf("cannot hash password: %w", err)
	}
	u.passwordHash = string(hash)
	u.Password = ""
	return nil
}

func insertUser(ctx context.Context, tx *sql.Tx, u *UserCreate) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, insertUserQuery, u.Alias, u.Email, u.passwordHash, u.Status).Scan(&id)
	return id, err
}

func scanUser(row scanner) (User, error) {
	var u User
	err := row.Scan(&u.UserID, &u.Alias, &u.Email, &u.Status)
	return u, err
}

func readUser(ctx context.Context, tx *sql.Tx, id int64) (User, error) {
	u, err := scanUser(tx.QueryRowContext(ctx, readUserQuery, id))
	if errors.Is(err, csql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

func listUsers(ctx context.Context, tx *sql.Tx, w window) ([]User, error) {
	rows, err := tx.QueryContext(ctx, listUsersQuery, w.limit, w.skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func updateUser(ctx context.Context, tx *sql.Tx, id int64, u *UserCreate) error {
	res, err := tx.ExecContext(ctx, updateUserQuery, id, u.Alias, u.Email, u.passwordHash, u.Status)
	return affectedOne(res, err)
}

func deleteUser(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, deleteUserQuery, id)
	return affectedOne(res, err)
}

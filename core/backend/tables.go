// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/relabs-tech/fanpages/core/logger"
)

// the database schemas the tables live in
const (
	SchemaSecurity        = "security"
	SchemaPersonalProfile = "personal_profile"
	SchemaBusinessProfile = "business_profile"
)

// Schemas lists all database schemas used by the backend
var Schemas = []string{SchemaSecurity, SchemaPersonalProfile, SchemaBusinessProfile}

// layoutVersion is bumped whenever the table layout below changes
const layoutVersion = 1

// qualified table names
const (
	tableUser        = SchemaSecurity + `."user"`
	tableRole        = SchemaSecurity + `.role`
	tableRoleFanPage = SchemaSecurity + `.role_fan_page`
	tablePerson      = SchemaPersonalProfile + `.person`
	tableFanPage     = SchemaBusinessProfile + `.fan_page`
)

// Deletions are restricted: a user with a person, or a person, fan page or role with
// assignments cannot be deleted.
var createTableQueries = []string{
	`CREATE table IF NOT EXISTS ` + tableUser + ` (
user_id SERIAL PRIMARY KEY,
alias varchar NOT NULL,
email varchar NOT NULL,
password_hash varchar NOT NULL,
status varchar NOT NULL
);
CREATE index IF NOT EXISTS user_alias ON ` + tableUser + `(alias);`,

	`CREATE table IF NOT EXISTS ` + tablePerson + ` (
person_id SERIAL PRIMARY KEY,
first_name varchar NOT NULL,
middle_name varchar NOT NULL DEFAULT '',
last_name varchar NOT NULL,
second_last_name varchar NOT NULL DEFAULT '',
birth_date date NOT NULL,
sex varchar NOT NULL,
profile_picture varchar NOT NULL DEFAULT '',
cover_picture varchar NOT NULL DEFAULT '',
user_id integer NOT NULL REFERENCES ` + tableUser + `(user_id) ON DELETE RESTRICT
);
CREATE index IF NOT EXISTS person_first_name ON ` + tablePerson + `(first_name);
CREATE index IF NOT EXISTS person_user_id ON ` + tablePerson + `(user_id);`,

	`CREATE table IF NOT EXISTS ` + tableFanPage + ` (
fan_page_id SERIAL PRIMARY KEY,
name varchar NOT NULL,
description varchar NOT NULL DEFAULT '',
profile_picture varchar NOT NULL DEFAULT '',
created_on date NOT NULL,
status varchar NOT NULL
);
CREATE index IF NOT EXISTS fan_page_name ON ` + tableFanPage + `(name);`,

	`CREATE table IF NOT EXISTS ` + tableRole + ` (
role_id SERIAL PRIMARY KEY,
name varchar NOT NULL,
description varchar NOT NULL DEFAULT '',
status varchar NOT NULL
);
CREATE index IF NOT EXISTS role_name ON ` + tableRole + `(name);`,

	`CREATE table IF NOT EXISTS ` + tableRoleFanPage + ` (
role_fan_page_id SERIAL PRIMARY KEY,
person_id integer NOT NULL REFERENCES ` + tablePerson + `(person_id) ON DELETE RESTRICT,
fan_page_id integer NOT NULL REFERENCES ` + tableFanPage + `(fan_page_id) ON DELETE RESTRICT,
role_id integer NOT NULL REFERENCES ` + tableRole + `(role_id) ON DELETE RESTRICT,
status varchar NOT NULL
);
CREATE index IF NOT EXISTS role_fan_page_person_id ON ` + tableRoleFanPage + `(person_id);
CREATE index IF NOT EXISTS role_fan_page_fan_page_id ON ` + tableRoleFanPage + `(fan_page_id);
CREATE index IF NOT EXISTS role_fan_page_role_id ON ` + tableRoleFanPage + `(role_id);`,
}

type tableLayout struct {
	Version int `json:"version"`
}

// createSchemas creates the database schemas. The registry lives in the security
// schema, so this must happen before anything else.
func (b *Backend) createSchemas(ctx context.Context) error {
	for _, schema := range Schemas {
		if _, err := b.db.ExecContext(ctx, `CREATE schema IF NOT EXISTS `+schema+`;`); err != nil {
			return fmt.Errorf("cannot create schema %s: %w", schema, err)
		}
	}
	return nil
}

// updateTables brings the tables to the current layout, unless the registry
// says this has been done already.
func (b *Backend) updateTables(ctx context.Context) error {
	rlog := logger.FromContext(ctx)
	if err := b.createSchemas(ctx); err != nil {
		return err
	}
	if err := b.registry.Init(ctx); err != nil {
		return err
	}

	accessor := b.registry.Accessor("backend")
	var current tableLayout
	if _, err := accessor.Read(ctx, "layout", &current); err != nil {
		return err
	}
	if current.Version >= layoutVersion {
		rlog.Debugln("table layout is up to date, version", current.Version)
		return nil
	}

	rlog.Infoln("update table layout from version", current.Version, "to", layoutVersion)
	err := b.db.WithSession(ctx, func(tx *sql.Tx) error {
		for _, query := range createTableQueries {
			if _, err := tx.ExecContext(ctx, query); err != nil {
				return fmt.Errorf("cannot create table: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return accessor.Write(ctx, "layout", tableLayout{Version: layoutVersion})
}

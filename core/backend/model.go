// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// UserCreate is the payload to create or replace a user
type UserCreate struct {
	Alias    string `json:"alias"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Status   string `json:"status"`

	passwordHash string
}

// User holds the public fields of a user. The password never leaves the backend.
type User struct {
	UserID int64  `json:"user_id"`
	Alias  string `json:"alias"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// PersonCreate is the payload to create or replace a person
type PersonCreate struct {
	FirstName      string `json:"first_name"`
	MiddleName     string `json:"middle_name"`
	LastName       string `json:"last_name"`
	SecondLastName string `json:"second_last_name"`
	BirthDate      Date   `json:"birth_date"`
	Sex            string `json:"sex"`
	ProfilePicture string `json:"profile_picture"`
	CoverPicture   string `json:"cover_picture"`
	UserID         int64  `json:"user_id"`
}

// Person is a person as returned by the backend, together with its user
type Person struct {
	PersonID int64 `json:"person_id"`
	PersonCreate
	User User `json:"user"`
}

// FanPageCreate is the payload to create or replace a fan page
type FanPageCreate struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	ProfilePicture string `json:"profile_picture"`
	CreatedOn      Date   `json:"created_on"`
	Status         string `json:"status"`
}

// FanPage is a fan page as returned by the backend
type FanPage struct {
	FanPageID int64 `json:"fan_page_id"`
	FanPageCreate
}

// RoleCreate is the payload to create or replace a role
type RoleCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Role is a role as returned by the backend
type Role struct {
	RoleID int64 `json:"role_id"`
	RoleCreate
}

// RoleFanPageCreate is the payload to create or replace an assignment of a
// role within a fan page to a person
type RoleFanPageCreate struct {
	PersonID  int64  `json:"person_id"`
	FanPageID int64  `json:"fan_page_id"`
	RoleID    int64  `json:"role_id"`
	Status    string `json:"status"`
}

// RoleFanPage is an assignment as returned by the backend. The referenced
// person, fan page and role are always loaded together with the assignment.
type RoleFanPage struct {
	RoleFanPageID int64 `json:"role_fan_page_id"`
	RoleFanPageCreate
	Person  Person  `json:"person"`
	FanPage FanPage `json:"fan_page"`
	Role    Role    `json:"role"`
}

const dateLayout = "2006-01-02"

// Date is a calendar day without time of day. It travels as "YYYY-MM-DD" in JSON
// and maps to the postgres date type.
type Date struct {
	time.Time
}

// NewDate returns the date for year, month and day in UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// String returns the date as YYYY-MM-DD
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON is a custom JSON marshaller
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON is a custom JSON unmarshaller
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid date '%s', expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// Scan implements sql.Scanner
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	case nil:
		d.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into a date", value)
}

func (d *Date) parse(s string) error {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Value implements driver.Valuer
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

/*
Package backend implements the fan page backend

A backend manages a Postgres-SQL database and provides a RESTful-API for users, persons,
fan pages, roles and the assignment of roles within fan pages to persons.

Tables

The tables live in three database schemas:

	security           user, role, role_fan_page
	personal_profile   person
	business_profile   fan_page

All identifiers are server generated integers. Foreign keys are declared with
ON DELETE RESTRICT, hence a user with a person, or a person, fan page or role with
assignments cannot be deleted. The request is answered with 409 Conflict.

Routes

Every resource provides the same set of routes, for example for fan pages:

	POST   /fan_pages/       create, returns 201
	GET    /fan_pages/       list, windowed with ?skip=&limit= (default 0 and 10)
	GET    /fan_pages/{id}   read
	PUT    /fan_pages/{id}   replace all fields
	DELETE /fan_pages/{id}   delete, returns the deleted fan page

The other resources are served on /users/, /personas/, /roles/ and /rol_fan_pages/.
A person is returned with the public fields of its user. The password of a user is
stored as bcrypt hash and never returned.

Assignments

An assignment (rol_fan_page) refers to a person, a fan page and a role. On create and
update all three must exist, otherwise the request is rejected with 400 and nothing is
written. An assignment is always returned with its person, fan page and role, loaded
in the same query. The list of assignments is not windowed.

Payloads

Create and update payloads are validated against the JSON schemas in the schemas
directory before they are decoded.

Notifications

If the builder has a core.Notifier, every committed create, update and delete is passed
to it together with the JSON representation returned to the caller.

Service routes

	GET /             service identification
	GET /version      build version
	GET /statistics   row count and size of every table
	GET /metrics      prometheus metrics
*/
package backend

// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"context"
	"embed"
	"fmt"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/relabs-tech/fanpages/core"
	"github.com/relabs-tech/fanpages/core/csql"
	"github.com/relabs-tech/fanpages/core/logger"
	"github.com/relabs-tech/fanpages/core/registry"
	"github.com/relabs-tech/fanpages/core/schema"
)

//go:embed schemas
var schemaFS embed.FS

// Backend is the fan page rest backend
type Backend struct {
	db           *csql.DB
	router       *mux.Router
	notifier     core.Notifier
	validator    *schema.Validator
	registry     registry.Registry
	metrics      *metrics
	passwordCost int
}

// Builder is a builder helper for the Backend
type Builder struct {
	// DB is a postgres database. This is mandatory.
	DB *csql.DB
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// Notifier receives committed creates, updates and deletes. This is optional.
	Notifier core.Notifier
	// UpdateSchema creates missing tables when set. Without it the tables
	// must exist already.
	UpdateSchema bool
	// PasswordCost is the bcrypt cost for user passwords. Defaults to bcrypt.DefaultCost.
	PasswordCost int
	// Registry collects the metrics served on /metrics. Defaults to a new registry.
	Registry *prometheus.Registry
}

// New realizes the actual backend. It creates the sql tables (if requested and
// they do not exist) and adds actual routes to router
func New(bb *Builder) *Backend {
	if bb.DB == nil {
		panic("DB is missing")
	}
	if bb.Router == nil {
		panic("Router is missing")
	}

	validator, err := schema.NewValidatorFromFS(schemaFS, "schemas")
	if err != nil {
		panic(fmt.Errorf("cannot load json schemas: %w", err))
	}

	passwordCost := bb.PasswordCost
	if passwordCost == 0 {
		passwordCost = bcrypt.DefaultCost
	}
	reg := bb.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	b := &Backend{
		db:           bb.DB,
		router:       bb.Router,
		notifier:     bb.Notifier,
		validator:    validator,
		registry:     registry.New(bb.DB.DB, SchemaSecurity),
		metrics:      newMetrics(reg),
		passwordCost: passwordCost,
	}

	if bb.UpdateSchema {
		if err := b.updateTables(context.Background()); err != nil {
			panic(fmt.Errorf("cannot update tables: %w", err))
		}
	}

	b.handleRoutes(b.router, reg)
	return b
}

// handleRoutes adds the middlewares and all routes
func (b *Backend) handleRoutes(router *mux.Router, gatherer prometheus.Gatherer) {
	logger.Default().Debugln("backend: handle routes")

	b.handleCORS()
	b.handleMetrics(router, gatherer)
	b.handleCompression()

	b.handleRoot(router)
	b.handleVersion(router)
	b.handleStatistics(router)

	b.userResource().register(b, router)
	b.personResource().register(b, router)
	b.fanPageResource().register(b, router)
	b.roleResource().register(b, router)
	b.roleFanPageResource().register(b, router)
}

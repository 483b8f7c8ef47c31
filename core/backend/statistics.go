// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/fanpages/core/logger"
)

// resourceStatistics represents information about a resource
type resourceStatistics struct {
	Resource     string  `json:"resource"`
	Table        string  `json:"table"`
	Count        int64   `json:"count"`
	SizeMB       float64 `json:"size_mb"`
	AverageSizeB float64 `json:"average_size_b"`
}

// statisticsDetails represents information about the backend resources
type statisticsDetails struct {
	Resources []resourceStatistics `json:"resources"`
}

// statisticsTables lists the tables in a fixed order, so that the Etag only
// changes when the numbers change
var statisticsTables = []struct {
	resource string
	table    string
}{
	{"user", tableUser},
	{"person", tablePerson},
	{"fan_page", tableFanPage},
	{"role", tableRole},
	{"role_fan_page", tableRoleFanPage},
}

func (b *Backend) handleStatistics(router *mux.Router) {
	logger.Default().Debugln("statistics")
	logger.Default().Debugln("  handle statistics route: /statistics GET")
	router.HandleFunc("/statistics", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		b.statistics(w, r)
	}).Methods(http.MethodOptions, http.MethodGet)
}

func (b *Backend) statistics(w http.ResponseWriter, r *http.Request) {
	rlog := logger.FromContext(r.Context())
	s := statisticsDetails{Resources: []resourceStatistics{}}
	for _, t := range statisticsTables {
		row := b.db.QueryRowContext(r.Context(),
			`SELECT pg_total_relation_size('`+t.table+`'), count(*) FROM `+t.table+`;`)
		var size, count int64
		if err := row.Scan(&size, &count); err != nil {
			rlog.WithError(err).Errorln("Error 5028: Scan")
			http.Error(w, "Error 5028", http.StatusInternalServerError)
			return
		}
		var averageSize float64
		if count != 0 {
			averageSize = float64(size) / float64(count)
		}
		s.Resources = append(s.Resources, resourceStatistics{
			Resource:     t.resource,
			Table:        t.table,
			Count:        count,
			SizeMB:       float64(size) / 1024. / 1024.,
			AverageSizeB: averageSize,
		})
	}
	writeJSON(w, r, http.StatusOK, s)
}

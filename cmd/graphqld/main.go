// Command graphqld is the ambient HTTP front-end for the Cypher-to-SQL
// compiler core: it loads the graph schema YAML named by GRAPH_CONFIG_PATH
// (spec.md §6 "CLI/env"), opens the ClickHouse connection pool named by
// CYPHERSQL_CLICKHOUSE_DSN, and serves POST /query (internal/httpapi) on
// CYPHERSQL_LISTEN_ADDR. None of this package is part of the core compiler
// (spec.md §1 places the HTTP front-end, connection pooling, and schema-file
// loading out of scope for the core itself); it is the thin deployable shell
// the teacher's own server/ package plays for the MySQL engine.
package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/clickgraph/cyphersql/internal/compiler"
	"github.com/clickgraph/cyphersql/internal/config"
	"github.com/clickgraph/cyphersql/internal/executor"
	"github.com/clickgraph/cyphersql/internal/httpapi"
	"github.com/clickgraph/cyphersql/internal/schema"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("graphqld: exiting")
	}
}

func run() error {
	cfg, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	log := newLogger(cfg.LogLevel)

	schemaPath := os.Getenv("GRAPH_CONFIG_PATH")
	if schemaPath == "" {
		return fmt.Errorf("GRAPH_CONFIG_PATH must be set")
	}
	raw, err := os.ReadFile(schemaPath)
	if err != nil {
		return errors.Wrapf(err, "reading %s", schemaPath)
	}

	schemaName := cfg.DefaultSchemaName
	gs, warnings, err := schema.LoadGraphSchema(schemaName, raw)
	if err != nil {
		return errors.Wrapf(err, "loading graph schema %q", schemaName)
	}
	for _, w := range warnings.List() {
		log.Warn(w)
	}

	var exec executor.QueryExecutor
	if cfg.ClickHouseDSN != "" {
		// "clickhouse" must be registered by a blank import of a real
		// database/sql driver (e.g. clickhouse-go) in whatever build of this
		// binary an operator actually deploys; this repo does not vendor one
		// itself (spec.md §1 places the ClickHouse client out of the core's
		// scope, and no driver for it exists anywhere in the retrieved pack).
		db, err := sql.Open("clickhouse", cfg.ClickHouseDSN)
		if err != nil {
			return errors.Wrap(err, "opening clickhouse DSN")
		}
		defer db.Close()
		exec = executor.New(db)
	} else {
		log.Warn("CYPHERSQL_CLICKHOUSE_DSN not set; only sql_only=true requests will succeed")
	}

	srv := &httpapi.Server{
		Catalog:  schema.NewCatalog(gs),
		Compiler: compiler.NewWithCacheSize(cfg.CacheSize, log.WithField("component", "compiler")),
		Exec:     exec,
		Log:      log.WithField("component", "httpapi"),
	}

	log.WithField("addr", cfg.ListenAddr).Info("graphqld: listening")
	return http.ListenAndServe(cfg.ListenAddr, srv.Router())
}

func newLogger(level string) *logrus.Entry {
	l := logrus.New()
	if lvl, err := logrus.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	}
	return logrus.NewEntry(l)
}

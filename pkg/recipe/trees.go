package recipe

import (
	"github.com/admariner/wrangles/pkg/connectors/ckan"
	"github.com/admariner/wrangles/pkg/connectors/file"
	"github.com/admariner/wrangles/pkg/connectors/generate"
	"github.com/admariner/wrangles/pkg/connectors/mongodb"
	"github.com/admariner/wrangles/pkg/connectors/s3"
	"github.com/admariner/wrangles/pkg/connectors/sqldb"
	"github.com/admariner/wrangles/pkg/registry"
	"github.com/admariner/wrangles/pkg/transform/create"
	"github.com/admariner/wrangles/pkg/transform/extract"
	"github.com/admariner/wrangles/pkg/transform/format"
	"github.com/admariner/wrangles/pkg/transform/impute"
	"github.com/admariner/wrangles/pkg/transform/outliers"
	"github.com/admariner/wrangles/pkg/transform/split"
	"github.com/admariner/wrangles/pkg/transform/standardize"
	"github.com/admariner/wrangles/pkg/transform/table"
	"github.com/admariner/wrangles/pkg/transform/validate"
)

// Wrangles returns the built-in wrangle tree.
func Wrangles() registry.Map {
	m := registry.Map{
		"clip":     outliers.Wrangle(),
		"create":   create.Tree(),
		"extract":  extract.Tree(),
		"format":   format.Tree(),
		"impute":   impute.Tree(),
		"split":    split.Tree(),
		"validate": validate.Tree(),
	}
	for k, v := range standardize.Tree() {
		m[k] = v
	}
	for k, v := range table.Tree() {
		m[k] = v
	}
	return m
}

// Connectors returns the built-in connector tree used by read, write and
// run steps.
func Connectors() registry.Map {
	return registry.Map{
		"ckan":     ckan.Tree(),
		"file":     file.Tree(),
		"mongodb":  mongodb.Tree(),
		"mssql":    sqldb.Tree(sqldb.MSSQL),
		"mysql":    sqldb.Tree(sqldb.MySQL),
		"postgres": sqldb.Tree(sqldb.Postgres),
		"s3":       s3.Tree(),
		"sqlite":   sqldb.Tree(sqldb.SQLite),
		"test":     generate.Tree(),
	}
}

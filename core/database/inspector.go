package database

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo matches the output of SHOW COLUMNS.
type ColumnInfo struct {
	Field   string
	Type    string
	Null    string
	Key     string
	Default *string
	Extra   string
}

// SchemaIssue describes one table whose live columns do not cover the expected set.
type SchemaIssue struct {
	Table   string   `json:"table"`
	Missing []string `json:"missing"`
}

func (i SchemaIssue) String() string {
	return fmt.Sprintf("%s: missing %s", i.Table, strings.Join(i.Missing, ", "))
}

// GetTableColumns retrieves the column definitions for a given table.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var columns []ColumnInfo
	if db.Dialector.Name() == DriverSQLite {
		type sqliteColumn struct {
			Cid        int
			Name       string
			Type       string
			Notnull    int
			DefaultVal *string `gorm:"column:dflt_value"`
			Pk         int
		}
		var sqliteCols []sqliteColumn
		if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", tableName)).Scan(&sqliteCols).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		for _, col := range sqliteCols {
			null := "YES"
			if col.Notnull == 1 {
				null = "NO"
			}
			key := ""
			if col.Pk > 0 {
				key = "PRI"
			}
			columns = append(columns, ColumnInfo{
				Field:   strings.ToLower(col.Name),
				Type:    strings.ToLower(col.Type),
				Null:    null,
				Key:     key,
				Default: col.DefaultVal,
			})
		}
		return columns, nil
	}

	if err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", tableName)).Scan(&columns).Error; err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
	}
	for i := range columns {
		columns[i].Type = strings.ToLower(columns[i].Type)
		columns[i].Field = strings.ToLower(columns[i].Field)
	}
	return columns, nil
}

// VerifySchema compares live tables against the expected column names per table.
// Tables are checked in name order; an absent table reports every column missing.
func VerifySchema(db *gorm.DB, expected map[string][]string) ([]SchemaIssue, error) {
	tables := make([]string, 0, len(expected))
	for table := range expected {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	var issues []SchemaIssue
	for _, table := range tables {
		cols, err := GetTableColumns(db, table)
		if err != nil {
			return nil, err
		}
		live := make(map[string]struct{}, len(cols))
		for _, c := range cols {
			live[c.Field] = struct{}{}
		}
		var missing []string
		for _, want := range expected[table] {
			if _, ok := live[strings.ToLower(want)]; !ok {
				missing = append(missing, want)
			}
		}
		if len(missing) > 0 {
			issues = append(issues, SchemaIssue{Table: table, Missing: missing})
		}
	}
	return issues, nil
}

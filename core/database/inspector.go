package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo matches one row of SHOW COLUMNS.
type ColumnInfo struct {
	Field   string
	Type    string
	Null    string
	Key     string
	Default *string // NULL default is possible
	Extra   string
}

// GetTableColumns retrieves the column definitions for a given table.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var columns []ColumnInfo
	if err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", tableName)).Scan(&columns).Error; err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
	}
	for i := range columns {
		columns[i].Field = strings.ToLower(columns[i].Field)
		columns[i].Type = strings.ToLower(columns[i].Type)
	}
	return columns, nil
}

// VerifySchema checks that every required table exists and has at least one
// column. The agent only ever reads the inventory database, so a missing
// table means it is pointed at the wrong schema; failing at startup beats
// failing mid-pass.
func VerifySchema(db *gorm.DB, tables []string) error {
	var missing []string
	for _, table := range tables {
		columns, err := GetTableColumns(db, table)
		if err != nil || len(columns) == 0 {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("inventory schema is missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}

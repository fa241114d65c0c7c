package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func columnRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("ID", "VARCHAR(36)", "NO", "PRI", nil, "").
		AddRow("Revision_Number", "BIGINT", "NO", "", nil, "")
}

func TestGetTableColumns(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SHOW COLUMNS FROM `security_groups`").WillReturnRows(columnRows())

	columns, err := GetTableColumns(db, "security_groups")
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, "id", columns[0].Field, "field names are normalized to lower case")
	assert.Equal(t, "bigint", columns[1].Type)
}

func TestVerifySchema(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SHOW COLUMNS FROM `security_groups`").WillReturnRows(columnRows())
	mock.ExpectQuery("SHOW COLUMNS FROM `ports`").WillReturnRows(columnRows())

	err := VerifySchema(db, []string{"security_groups", "ports"})
	assert.NoError(t, err)
}

func TestVerifySchema_MissingTable(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SHOW COLUMNS FROM `security_groups`").WillReturnRows(columnRows())
	mock.ExpectQuery("SHOW COLUMNS FROM `qos_policies`").
		WillReturnError(assert.AnError)

	err := VerifySchema(db, []string{"security_groups", "qos_policies"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qos_policies")
}

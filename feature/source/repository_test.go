package source

import (
	"context"
	"testing"
	"time"

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

func TestSecurityGroupRevisions_Page(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "revision_number", "created_at"}).
		AddRow("sg-1", 4, created).
		AddRow("sg-2", 7, created.Add(time.Minute))

	mock.ExpectQuery("SELECT `id`,`revision_number`,`created_at` FROM `security_groups`").
		WillReturnRows(rows)

	tuples, err := repo.SecurityGroupRevisions(context.Background(), 100, time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, tuples, 2)
	assert.Equal(t, "sg-1", tuples[0].Key)
	assert.Equal(t, int64(4), tuples[0].Revision)
	assert.True(t, tuples[1].CreatedAt.After(tuples[0].CreatedAt))
}

func TestPortRevisions_FiltersByHost(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "revision_number", "created_at"}).
		AddRow("port-1", 2, time.Now())

	mock.ExpectQuery("SELECT `id`,`revision_number`,`created_at` FROM `ports`").
		WithArgs("compute-7", sqlmock.AnyArg()).
		WillReturnRows(rows)

	query := repo.PortRevisions("compute-7")
	tuples, err := query(context.Background(), 100, time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, tuples, 1)
	assert.Equal(t, "port-1", tuples[0].Key)
}

func TestSecurityGroupRevision(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "revision_number"}).AddRow("sg-1", 12)
	mock.ExpectQuery("SELECT `id`,`revision_number` FROM `security_groups`").
		WithArgs("sg-1", 1).
		WillReturnRows(rows)

	rev, err := repo.SecurityGroupRevision(context.Background(), "sg-1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), rev)
}

func TestHasSecurityGroupTag(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"count(*)"}).AddRow(1)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `security_group_tags`").
		WithArgs("sg-1", TagTCPStrict).
		WillReturnRows(rows)

	tagged, err := repo.HasSecurityGroupTag(context.Background(), "sg-1", TagTCPStrict)
	require.NoError(t, err)
	assert.True(t, tagged)
}

func TestPortDetails_MalformedVifDetails(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "mac_address", "admin_state_up", "status", "qos_policy_id", "revision_number", "binding_host_id", "vif_details", "created_at"}).
		AddRow("port-1", "fa:16:3e:00:00:01", true, "ACTIVE", nil, 3, "compute-7", "{not json", time.Now())

	mock.ExpectQuery("SELECT \\* FROM `ports`").
		WithArgs("port-1", 1).
		WillReturnRows(rows)

	_, err := repo.PortDetails(context.Background(), "port-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed vif_details")
}

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/dm-planner/internal/service/analytics"
)

func TestStorePerformance(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM retail_stores s").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "store_number", "name", "city", "state", "region", "district", "size_category",
			"deployment_count", "recipients", "conversions",
		}).
			AddRow("st-1", "101", "Portland Central", "Portland", "OR", "West", "PNW", "large", 6, 8300, 390).
			AddRow("st-2", "", "Phoenix North", "Phoenix", "AZ", "Southwest", "AZ-1", "medium", 2, 100, 2))

	repo := NewAnalyticsRepo(db)
	records, err := repo.StorePerformance(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "st-1", records[0].StoreID)
	assert.Equal(t, "West", records[0].Region)
	assert.Equal(t, 6, records[0].DeploymentCount)
	assert.InDelta(t, 4.699, records[0].ConversionRate, 0.001)
	assert.Equal(t, 2.0, records[1].ConversionRate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorePerformanceEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM retail_stores s").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	records, err := NewAnalyticsRepo(db).StorePerformance(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestStorePerformanceQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM retail_stores s").WillReturnError(boom)

	_, err = NewAnalyticsRepo(db).StorePerformance(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPeriodPerformanceUsesExtractField(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`EXTRACT\(MONTH FROM created_at\)`).
		WillReturnRows(sqlmock.NewRows([]string{"period", "count", "recipients", "conversions"}).
			AddRow(10, 3, 1500, 60).
			AddRow(11, 1, 500, 30))

	aggs, err := NewAnalyticsRepo(db).PeriodPerformance(context.Background(), analytics.GroupByMonth)
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	assert.Equal(t, 10, aggs[0].Period)
	assert.Equal(t, 1500, aggs[0].Recipients)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodPerformanceRejectsUnknownGrouping(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewAnalyticsRepo(db).PeriodPerformance(context.Background(), analytics.GroupBy("hour; DROP TABLE x"))
	assert.ErrorIs(t, err, analytics.ErrInvalidGroupBy)
}

func TestTotals(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM retail_stores").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e"}).AddRow(12, 10, 40, 20000, 900))

	totals, err := NewAnalyticsRepo(db).Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, totals.TotalStores)
	assert.Equal(t, 10, totals.ActiveStores)
	assert.Equal(t, 40, totals.Deployments)
	assert.Equal(t, 20000, totals.Recipients)
	assert.Equal(t, 900, totals.Conversions)
}

func TestStoreDeployments(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("WHERE d.store_id = \\$1").
		WithArgs("st-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "recipients", "conversions", "created_at"}).
			AddRow("dep-1", "camp-1", 300, 12, now.Add(-48*time.Hour)).
			AddRow("dep-2", "camp-1", 800, 30, now))

	stats, err := NewAnalyticsRepo(db).StoreDeployments(context.Background(), "st-1")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "dep-1", stats[0].DeploymentID)
	assert.Equal(t, 800, stats[1].Recipients)
	require.NoError(t, mock.ExpectationsWereMet())
}

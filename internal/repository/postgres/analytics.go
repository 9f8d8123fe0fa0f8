package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/dm-planner/internal/domain"
	"github.com/ignite/dm-planner/internal/service/analytics"
)

// AnalyticsRepo implements analytics.Repository against PostgreSQL.
// It only issues aggregate SELECTs.
type AnalyticsRepo struct{ db *sql.DB }

// NewAnalyticsRepo creates a Postgres-backed analytics repository.
func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

const storePerformanceQuery = `
	SELECT s.id, COALESCE(s.store_number, ''), s.name,
	       COALESCE(s.city, ''), COALESCE(s.state, ''),
	       COALESCE(s.region, ''), COALESCE(s.district, ''), COALESCE(s.size_category, ''),
	       COUNT(DISTINCT d.id)              AS deployment_count,
	       COUNT(DISTINCT rdr.recipient_id)  AS recipients,
	       COUNT(DISTINCT c.id)              AS conversions
	FROM retail_stores s
	JOIN retail_campaign_deployments d ON d.store_id = s.id
	LEFT JOIN retail_deployment_recipients rdr ON rdr.deployment_id = d.id
	LEFT JOIN recipients r ON r.id = rdr.recipient_id
	LEFT JOIN conversions c ON c.tracking_id = r.tracking_id
	WHERE s.is_active = TRUE
	GROUP BY s.id, s.store_number, s.name, s.city, s.state, s.region, s.district, s.size_category
	ORDER BY s.id`

func (r *AnalyticsRepo) StorePerformance(ctx context.Context) ([]domain.StorePerformanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, storePerformanceQuery)
	if err != nil {
		return nil, fmt.Errorf("query store performance: %w", err)
	}
	defer rows.Close()

	out := []domain.StorePerformanceRecord{}
	for rows.Next() {
		var s domain.StorePerformanceRecord
		if err := rows.Scan(
			&s.StoreID, &s.StoreNumber, &s.Name, &s.City, &s.State,
			&s.Region, &s.District, &s.SizeCategory,
			&s.DeploymentCount, &s.Recipients, &s.Conversions,
		); err != nil {
			return nil, fmt.Errorf("scan store performance: %w", err)
		}
		s.ConversionRate = domain.ConversionRate(s.Recipients, s.Conversions)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate store performance: %w", err)
	}
	return out, nil
}

// extractField maps a grouping to the Postgres EXTRACT field. Only these
// literals are ever interpolated into SQL.
var extractField = map[analytics.GroupBy]string{
	analytics.GroupByDayOfWeek: "DOW",
	analytics.GroupByWeek:      "WEEK",
	analytics.GroupByMonth:     "MONTH",
}

func (r *AnalyticsRepo) PeriodPerformance(ctx context.Context, groupBy analytics.GroupBy) ([]domain.PeriodAggregate, error) {
	field, ok := extractField[groupBy]
	if !ok {
		return nil, analytics.ErrInvalidGroupBy
	}

	q := fmt.Sprintf(`
		WITH per_deployment AS (
			SELECT d.id, d.created_at,
			       COUNT(DISTINCT rdr.recipient_id) AS recipients,
			       COUNT(DISTINCT c.id)             AS conversions
			FROM retail_campaign_deployments d
			LEFT JOIN retail_deployment_recipients rdr ON rdr.deployment_id = d.id
			LEFT JOIN recipients r ON r.id = rdr.recipient_id
			LEFT JOIN conversions c ON c.tracking_id = r.tracking_id
			GROUP BY d.id, d.created_at
		)
		SELECT EXTRACT(%s FROM created_at)::int AS period,
		       COUNT(*), COALESCE(SUM(recipients), 0), COALESCE(SUM(conversions), 0)
		FROM per_deployment
		GROUP BY period
		ORDER BY period`, field)

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query period performance: %w", err)
	}
	defer rows.Close()

	out := []domain.PeriodAggregate{}
	for rows.Next() {
		var a domain.PeriodAggregate
		if err := rows.Scan(&a.Period, &a.Deployments, &a.Recipients, &a.Conversions); err != nil {
			return nil, fmt.Errorf("scan period performance: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate period performance: %w", err)
	}
	return out, nil
}

func (r *AnalyticsRepo) Totals(ctx context.Context) (domain.Totals, error) {
	var t domain.Totals
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM retail_stores),
			(SELECT COUNT(*) FROM retail_stores WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM retail_campaign_deployments),
			(SELECT COUNT(DISTINCT recipient_id) FROM retail_deployment_recipients),
			(SELECT COUNT(DISTINCT c.id)
			   FROM conversions c
			   JOIN recipients r ON r.tracking_id = c.tracking_id
			   JOIN retail_deployment_recipients rdr ON rdr.recipient_id = r.id)
	`).Scan(&t.TotalStores, &t.ActiveStores, &t.Deployments, &t.Recipients, &t.Conversions)
	if err != nil {
		return domain.Totals{}, fmt.Errorf("query totals: %w", err)
	}
	return t, nil
}

func (r *AnalyticsRepo) StoreDeployments(ctx context.Context, storeID string) ([]domain.DeploymentStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.id, d.campaign_id,
		       COUNT(DISTINCT rdr.recipient_id) AS recipients,
		       COUNT(DISTINCT c.id)             AS conversions,
		       d.created_at
		FROM retail_campaign_deployments d
		LEFT JOIN retail_deployment_recipients rdr ON rdr.deployment_id = d.id
		LEFT JOIN recipients r ON r.id = rdr.recipient_id
		LEFT JOIN conversions c ON c.tracking_id = r.tracking_id
		WHERE d.store_id = $1
		GROUP BY d.id, d.campaign_id, d.created_at
		ORDER BY d.created_at ASC
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("query store deployments: %w", err)
	}
	defer rows.Close()

	out := []domain.DeploymentStat{}
	for rows.Next() {
		var d domain.DeploymentStat
		if err := rows.Scan(&d.DeploymentID, &d.CampaignID, &d.Recipients, &d.Conversions, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan store deployment: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate store deployments: %w", err)
	}
	return out, nil
}

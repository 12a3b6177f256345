package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Price history is pruned to the most recent entries per opportunity.
const priceHistoryLimit = 60

// SQLiteOpportunityRepository handles database operations for opportunities
type SQLiteOpportunityRepository struct {
	db *DB
}

var _ OpportunityRepository = (*SQLiteOpportunityRepository)(nil)

// NewOpportunityRepository creates a new opportunity repository
func NewOpportunityRepository(db *DB) *SQLiteOpportunityRepository {
	return &SQLiteOpportunityRepository{db: db}
}

// Upsert inserts a new opportunity or refreshes an existing one as active,
// keyed by (source, listing_id). first_seen is written once on insert and
// never touched again, even when a removed or stale row goes active again.
// Every upsert appends a price history entry.
func (r *SQLiteOpportunityRepository) Upsert(opp *Opportunity, now time.Time) (int64, error) {
	return r.UpsertWithStatus(opp, StatusActive, now)
}

// UpsertWithStatus is Upsert with an explicit status, for rechecks that
// must keep the refreshed prices and history even when the profit decision
// flipped and the row goes stale.
func (r *SQLiteOpportunityRepository) UpsertWithStatus(opp *Opportunity, status string, now time.Time) (int64, error) {
	existing, err := r.GetByKey(opp.Source, opp.ListingID)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing opportunity: %w", err)
	}

	var dbID int64
	if existing != nil {
		_, err = r.db.Exec(`
			UPDATE opportunities
			SET watch_name = ?, title = ?, url = ?, price = ?, reference_price = ?,
			    pickup_cost = ?, profit = ?, accepted = ?,
			    product_name = ?, product_category = ?, product_brand = ?,
			    product_model = ?, identify_tier = ?,
			    status = ?, last_checked = ?
			WHERE id = ?
		`, opp.WatchName, opp.Title, opp.URL, opp.Price, opp.ReferencePrice,
			opp.PickupCost, opp.Profit, opp.Accepted,
			opp.ProductName, opp.ProductCategory, opp.ProductBrand,
			opp.ProductModel, opp.IdentifyTier,
			status, now, existing.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to update opportunity: %w", err)
		}
		dbID = existing.ID
	} else {
		result, err := r.db.Exec(`
			INSERT INTO opportunities (
				source, listing_id, watch_name, title, url, price,
				reference_price, pickup_cost, profit, accepted,
				product_name, product_category, product_brand, product_model,
				identify_tier, status, first_seen, last_checked
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, opp.Source, opp.ListingID, opp.WatchName, opp.Title, opp.URL, opp.Price,
			opp.ReferencePrice, opp.PickupCost, opp.Profit, opp.Accepted,
			opp.ProductName, opp.ProductCategory, opp.ProductBrand, opp.ProductModel,
			opp.IdentifyTier, status, now, now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert opportunity: %w", err)
		}
		dbID, err = result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get inserted ID: %w", err)
		}
	}

	if err := r.appendPricePoint(dbID, opp, now); err != nil {
		return 0, err
	}

	return dbID, nil
}

func (r *SQLiteOpportunityRepository) appendPricePoint(opportunityID int64, opp *Opportunity, now time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO price_history (opportunity_id, price, reference_price, profit, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, opportunityID, opp.Price, opp.ReferencePrice, opp.Profit, now)
	if err != nil {
		return fmt.Errorf("failed to append price history: %w", err)
	}

	_, err = r.db.Exec(`
		DELETE FROM price_history
		WHERE opportunity_id = ?
		  AND id NOT IN (
			SELECT id FROM price_history
			WHERE opportunity_id = ?
			ORDER BY recorded_at DESC, id DESC
			LIMIT ?
		  )
	`, opportunityID, opportunityID, priceHistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to prune price history: %w", err)
	}

	return nil
}

// GetByKey retrieves an opportunity by its dedup key. Returns nil when no
// row exists.
func (r *SQLiteOpportunityRepository) GetByKey(source, listingID string) (*Opportunity, error) {
	opp, err := r.scanOne(r.db.QueryRow(
		selectColumns+` FROM opportunities WHERE source = ? AND listing_id = ?`,
		source, listingID))
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunity by key: %w", err)
	}
	return opp, nil
}

// GetOpportunities returns opportunities with the given status, most
// profitable first. An empty status returns all rows.
func (r *SQLiteOpportunityRepository) GetOpportunities(status string, limit int) ([]Opportunity, error) {
	query := selectColumns + ` FROM opportunities`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY profit DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunities: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// GetDueForRecheck returns active opportunities whose last check is older
// than the interval, stalest first.
func (r *SQLiteOpportunityRepository) GetDueForRecheck(now time.Time, interval time.Duration, limit int) ([]Opportunity, error) {
	cutoff := now.Add(-interval)

	rows, err := r.db.Query(
		selectColumns+`
		FROM opportunities
		WHERE status = ? AND last_checked < ?
		ORDER BY last_checked ASC
		LIMIT ?
	`, StatusActive, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunities due for recheck: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// UpdateStatus sets the status of an opportunity and records the check time.
func (r *SQLiteOpportunityRepository) UpdateStatus(id int64, status string, now time.Time) error {
	_, err := r.db.Exec(`
		UPDATE opportunities
		SET status = ?, last_checked = ?
		WHERE id = ?
	`, status, now, id)
	if err != nil {
		return fmt.Errorf("failed to update opportunity status: %w", err)
	}
	return nil
}

// GetPriceHistory returns the recorded price points for an opportunity,
// oldest first.
func (r *SQLiteOpportunityRepository) GetPriceHistory(opportunityID int64) ([]PricePoint, error) {
	rows, err := r.db.Query(`
		SELECT id, opportunity_id, price, reference_price, profit, recorded_at
		FROM price_history
		WHERE opportunity_id = ?
		ORDER BY recorded_at ASC, id ASC
	`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.ID, &p.OpportunityID, &p.Price, &p.ReferencePrice, &p.Profit, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history rows: %w", err)
	}

	return points, nil
}

// GetStatusCounts returns the number of opportunities per status.
func (r *SQLiteOpportunityRepository) GetStatusCounts() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM opportunities GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status count rows: %w", err)
	}

	return counts, nil
}

const selectColumns = `
	SELECT id, source, listing_id, watch_name, title, url, price,
	       reference_price, pickup_cost, profit, accepted,
	       product_name, product_category, product_brand, product_model,
	       identify_tier, status, first_seen, last_checked`

func (r *SQLiteOpportunityRepository) scanOne(row *sql.Row) (*Opportunity, error) {
	var opp Opportunity
	err := row.Scan(
		&opp.ID, &opp.Source, &opp.ListingID, &opp.WatchName, &opp.Title, &opp.URL, &opp.Price,
		&opp.ReferencePrice, &opp.PickupCost, &opp.Profit, &opp.Accepted,
		&opp.ProductName, &opp.ProductCategory, &opp.ProductBrand, &opp.ProductModel,
		&opp.IdentifyTier, &opp.Status, &opp.FirstSeen, &opp.LastChecked,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &opp, nil
}

func (r *SQLiteOpportunityRepository) scanAll(rows *sql.Rows) ([]Opportunity, error) {
	var opportunities []Opportunity
	for rows.Next() {
		var opp Opportunity
		err := rows.Scan(
			&opp.ID, &opp.Source, &opp.ListingID, &opp.WatchName, &opp.Title, &opp.URL, &opp.Price,
			&opp.ReferencePrice, &opp.PickupCost, &opp.Profit, &opp.Accepted,
			&opp.ProductName, &opp.ProductCategory, &opp.ProductBrand, &opp.ProductModel,
			&opp.IdentifyTier, &opp.Status, &opp.FirstSeen, &opp.LastChecked,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity row: %w", err)
		}
		opportunities = append(opportunities, opp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunity rows: %w", err)
	}

	return opportunities, nil
}

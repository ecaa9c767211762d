package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"baristalog/internal/database"
	"baristalog/internal/models"
)

// extractionSelect joins the equipment names so callers get display-ready
// records in a single query.
const extractionSelect = `
	SELECT
		e.rkey, e.date, e.grind_setting, e.dose_in, e.yield_out, e.time_seconds,
		e.rating, e.notes, e.created_at,
		e.bean_rkey, b.name,
		e.grinder_rkey, g.name,
		e.brewer_rkey, br.name
	FROM extractions e
	LEFT JOIN beans b ON e.bean_rkey = b.rkey
	LEFT JOIN grinders g ON e.grinder_rkey = g.rkey
	LEFT JOIN brewers br ON e.brewer_rkey = br.rkey
`

func extractionOrder(sort database.SortKey) string {
	switch sort {
	case database.SortDateAsc:
		return "ORDER BY e.date ASC, e.rkey ASC"
	case database.SortCreatedDesc:
		return "ORDER BY e.created_at DESC, e.rkey DESC"
	default:
		return "ORDER BY e.date DESC, e.rkey DESC"
	}
}

func scanExtraction(row interface{ Scan(...any) error }) (*models.Extraction, error) {
	e := &models.Extraction{}
	var date, createdAt int64
	var doseIn, yieldOut, timeSeconds sql.NullFloat64
	var rating sql.NullInt64
	var notes sql.NullString
	var beanRKey, beanName, grinderRKey, grinderName, brewerRKey, brewerName sql.NullString

	err := row.Scan(
		&e.RKey, &date, &e.GrindSetting, &doseIn, &yieldOut, &timeSeconds,
		&rating, &notes, &createdAt,
		&beanRKey, &beanName,
		&grinderRKey, &grinderName,
		&brewerRKey, &brewerName,
	)
	if err != nil {
		return nil, err
	}

	e.Date = fromUnix(date)
	e.CreatedAt = fromUnix(createdAt)
	e.DoseIn = floatPtr(doseIn)
	e.YieldOut = floatPtr(yieldOut)
	e.TimeSeconds = floatPtr(timeSeconds)
	e.Rating = intPtr(rating)
	e.Notes = stringPtr(notes)

	e.BeanRKey, e.Bean = joinedRef(beanRKey, beanName)
	e.GrinderRKey, e.Grinder = joinedRef(grinderRKey, grinderName)
	e.BrewerRKey, e.Brewer = joinedRef(brewerRKey, brewerName)
	return e, nil
}

func joinedRef(rkey, name sql.NullString) (string, *models.EquipmentRef) {
	if !rkey.Valid || !name.Valid {
		return "", nil
	}
	return rkey.String, &models.EquipmentRef{RKey: rkey.String, Name: name.String}
}

func queryExtractions(ctx context.Context, q querier, query string, args ...any) ([]*models.Extraction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query extractions: %w", err)
	}
	defer rows.Close()

	var extractions []*models.Extraction
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extraction: %w", err)
		}
		extractions = append(extractions, e)
	}
	return extractions, rows.Err()
}

func getExtraction(ctx context.Context, q querier, rkey string) (*models.Extraction, error) {
	e, err := scanExtraction(q.QueryRowContext(ctx, extractionSelect+" WHERE e.rkey = ?", rkey))
	if err == sql.ErrNoRows {
		return nil, notFound(database.CollectionExtraction, rkey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extraction: %w", err)
	}
	return e, nil
}

// checkReferences fails validation when a non-empty reference does not name
// an existing entity.
func checkReferences(ctx context.Context, q querier, e *models.Extraction) error {
	refs := []struct {
		field string
		table string
		rkey  string
	}{
		{"bean_rkey", "beans", e.BeanRKey},
		{"grinder_rkey", "grinders", e.GrinderRKey},
		{"brewer_rkey", "brewers", e.BrewerRKey},
	}
	for _, ref := range refs {
		if ref.rkey == "" {
			continue
		}
		invalid := &database.ValidationError{Field: ref.field, Message: "referenced equipment does not exist"}
		if database.ValidateRKey(ref.rkey) != nil {
			return invalid
		}
		var exists bool
		if err := q.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM "+ref.table+" WHERE rkey = ?)", ref.rkey).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check %s: %w", ref.field, err)
		}
		if !exists {
			return invalid
		}
	}
	return nil
}

func (s *SQLiteStore) CreateExtraction(ctx context.Context, req *models.CreateExtractionRequest) (*models.Extraction, error) {
	now := s.now()
	e := req.Extraction(now)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	e.RKey = s.rkeys.Next()
	e.CreatedAt = now

	err := s.withTx(ctx, "create extraction", func(tx *sql.Tx) error {
		if err := checkReferences(ctx, tx, e); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO extractions (
				rkey, date, grind_setting, dose_in, yield_out, time_seconds, rating, notes,
				bean_rkey, grinder_rkey, brewer_rkey, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.RKey, unixTime(e.Date), e.GrindSetting, nullFloat(e.DoseIn), nullFloat(e.YieldOut),
			nullFloat(e.TimeSeconds), nullInt(e.Rating), nullString(e.Notes),
			nullRKey(e.BeanRKey), nullRKey(e.GrinderRKey), nullRKey(e.BrewerRKey), unixTime(e.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert extraction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetExtractionByRKey(ctx, e.RKey)
}

func (s *SQLiteStore) GetExtractionByRKey(ctx context.Context, rkey string) (*models.Extraction, error) {
	if err := checkRKey(database.CollectionExtraction, rkey); err != nil {
		return nil, err
	}
	e, err := getExtraction(ctx, s.db, rkey)
	return e, database.Persistence("get extraction", err)
}

func (s *SQLiteStore) ListExtractions(ctx context.Context, sort database.SortKey) ([]*models.Extraction, error) {
	extractions, err := queryExtractions(ctx, s.db, extractionSelect+extractionOrder(sort))
	return extractions, database.Persistence("list extractions", err)
}

func (s *SQLiteStore) ListRelatedExtractions(ctx context.Context, rel database.Relation, rkey string) ([]*models.Extraction, error) {
	if !rel.Valid() {
		return nil, &database.ValidationError{Field: "relation", Message: fmt.Sprintf("unknown relation %q", rel)}
	}
	if err := checkRKey(string(rel), rkey); err != nil {
		return nil, err
	}
	extractions, err := queryExtractions(ctx, s.db,
		extractionSelect+" WHERE e."+rel.Column()+" = ? "+extractionOrder(database.SortDateDesc), rkey)
	return extractions, database.Persistence("list related extractions", err)
}

func (s *SQLiteStore) UpdateExtraction(ctx context.Context, rkey string, mutate func(*models.Extraction)) (*models.Extraction, error) {
	if err := checkRKey(database.CollectionExtraction, rkey); err != nil {
		return nil, err
	}

	err := s.withTx(ctx, "update extraction", func(tx *sql.Tx) error {
		current, err := getExtraction(ctx, tx, rkey)
		if err != nil {
			return err
		}

		e := current.Clone()
		mutate(e)
		e.RKey, e.CreatedAt = current.RKey, current.CreatedAt
		if err := e.Validate(); err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, e); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE extractions
			SET date = ?, grind_setting = ?, dose_in = ?, yield_out = ?, time_seconds = ?,
				rating = ?, notes = ?, bean_rkey = ?, grinder_rkey = ?, brewer_rkey = ?
			WHERE rkey = ?
		`, unixTime(e.Date), e.GrindSetting, nullFloat(e.DoseIn), nullFloat(e.YieldOut),
			nullFloat(e.TimeSeconds), nullInt(e.Rating), nullString(e.Notes),
			nullRKey(e.BeanRKey), nullRKey(e.GrinderRKey), nullRKey(e.BrewerRKey), rkey)
		if err != nil {
			return fmt.Errorf("failed to update extraction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetExtractionByRKey(ctx, rkey)
}

func (s *SQLiteStore) DeleteExtractionByRKey(ctx context.Context, rkey string) error {
	if err := checkRKey(database.CollectionExtraction, rkey); err != nil {
		return err
	}

	return s.withTx(ctx, "delete extraction", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM extractions WHERE rkey = ?", rkey)
		if err != nil {
			return fmt.Errorf("failed to delete extraction: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return notFound(database.CollectionExtraction, rkey)
		}
		return nil
	})
}

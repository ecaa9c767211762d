package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"baristalog/internal/database"
	"baristalog/internal/models"
)

// equipmentOrder maps sort keys to ORDER BY clauses for bean, grinder and
// brewer lists. Unknown keys fall back to name order.
func equipmentOrder(sort database.SortKey) string {
	switch sort {
	case database.SortCreatedDesc:
		return "ORDER BY created_at DESC, rkey DESC"
	default:
		return "ORDER BY name COLLATE NOCASE ASC, rkey ASC"
	}
}

// deleteEquipment clears the matching reference on every extraction, then
// removes the entity and its image, all in one transaction.
func (s *SQLiteStore) deleteEquipment(ctx context.Context, table, collection string, rel database.Relation, rkey string) error {
	if err := checkRKey(collection, rkey); err != nil {
		return err
	}
	column := rel.Column()

	return s.withTx(ctx, "delete "+collection, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE extractions SET "+column+" = NULL WHERE "+column+" = ?", rkey); err != nil {
			return fmt.Errorf("failed to nullify extraction references: %w", err)
		}
		if err := deleteImage(ctx, tx, collection, rkey); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE rkey = ?", rkey)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", collection, err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return notFound(collection, rkey)
		}
		return nil
	})
}

// ========== Bean Operations ==========

const beanColumns = `b.rkey, b.name, b.roaster, b.origin, b.roast_date, b.opened_date, b.notes, b.created_at`

func scanBean(row interface{ Scan(...any) error }) (*models.Bean, error) {
	bean := &models.Bean{}
	var roaster, origin, notes sql.NullString
	var roastDate, openedDate sql.NullInt64
	var createdAt int64

	err := row.Scan(&bean.RKey, &bean.Name, &roaster, &origin, &roastDate, &openedDate, &notes, &createdAt, &bean.HasImage)
	if err != nil {
		return nil, err
	}

	bean.Roaster = stringPtr(roaster)
	bean.Origin = stringPtr(origin)
	bean.RoastDate = timePtr(roastDate)
	bean.OpenedDate = timePtr(openedDate)
	bean.Notes = stringPtr(notes)
	bean.CreatedAt = fromUnix(createdAt)
	return bean, nil
}

func (s *SQLiteStore) CreateBean(ctx context.Context, req *models.CreateBeanRequest) (*models.Bean, error) {
	bean := req.Bean()
	if err := bean.Validate(); err != nil {
		return nil, err
	}
	bean.RKey = s.rkeys.Next()
	bean.CreatedAt = s.now()

	err := s.withTx(ctx, "create bean", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO beans (rkey, name, roaster, origin, roast_date, opened_date, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, bean.RKey, bean.Name, nullString(bean.Roaster), nullString(bean.Origin),
			nullTime(bean.RoastDate), nullTime(bean.OpenedDate), nullString(bean.Notes), unixTime(bean.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert bean: %w", err)
		}
		return saveImage(ctx, tx, database.CollectionBean, bean.RKey, bean.ImageData)
	})
	if err != nil {
		return nil, err
	}

	return s.GetBeanByRKey(ctx, bean.RKey)
}

func (s *SQLiteStore) GetBeanByRKey(ctx context.Context, rkey string) (*models.Bean, error) {
	if err := checkRKey(database.CollectionBean, rkey); err != nil {
		return nil, err
	}
	bean, err := getBean(ctx, s.db, rkey)
	return bean, database.Persistence("get bean", err)
}

func getBean(ctx context.Context, q querier, rkey string) (*models.Bean, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+beanColumns+`, `+hasImageExpr("b", database.CollectionBean)+`
		FROM beans b
		WHERE b.rkey = ?
	`, rkey)

	bean, err := scanBean(row)
	if err == sql.ErrNoRows {
		return nil, notFound(database.CollectionBean, rkey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bean: %w", err)
	}

	if bean.HasImage {
		if bean.ImageData, err = loadImage(ctx, q, database.CollectionBean, rkey); err != nil {
			return nil, err
		}
	}
	return bean, nil
}

func (s *SQLiteStore) ListBeans(ctx context.Context, sort database.SortKey) ([]*models.Bean, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+beanColumns+`, `+hasImageExpr("b", database.CollectionBean)+`
		FROM beans b
		`+equipmentOrder(sort))
	if err != nil {
		return nil, database.Persistence("list beans", err)
	}
	defer rows.Close()

	var beans []*models.Bean
	for rows.Next() {
		bean, err := scanBean(rows)
		if err != nil {
			return nil, database.Persistence("list beans", fmt.Errorf("failed to scan bean: %w", err))
		}
		beans = append(beans, bean)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Persistence("list beans", err)
	}

	return beans, nil
}

func (s *SQLiteStore) UpdateBean(ctx context.Context, rkey string, mutate func(*models.Bean)) (*models.Bean, error) {
	if err := checkRKey(database.CollectionBean, rkey); err != nil {
		return nil, err
	}

	err := s.withTx(ctx, "update bean", func(tx *sql.Tx) error {
		current, err := getBean(ctx, tx, rkey)
		if err != nil {
			return err
		}

		bean := current.Clone()
		mutate(bean)
		bean.RKey, bean.CreatedAt = current.RKey, current.CreatedAt
		if err := bean.Validate(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE beans
			SET name = ?, roaster = ?, origin = ?, roast_date = ?, opened_date = ?, notes = ?
			WHERE rkey = ?
		`, bean.Name, nullString(bean.Roaster), nullString(bean.Origin),
			nullTime(bean.RoastDate), nullTime(bean.OpenedDate), nullString(bean.Notes), rkey)
		if err != nil {
			return fmt.Errorf("failed to update bean: %w", err)
		}
		return saveImage(ctx, tx, database.CollectionBean, rkey, bean.ImageData)
	})
	if err != nil {
		return nil, err
	}

	return s.GetBeanByRKey(ctx, rkey)
}

func (s *SQLiteStore) DeleteBeanByRKey(ctx context.Context, rkey string) error {
	return s.deleteEquipment(ctx, "beans", database.CollectionBean, database.RelationBean, rkey)
}

// ========== Grinder Operations ==========

const grinderColumns = `g.rkey, g.name, g.brand, g.burr_type, g.burr_size, g.adjustment_notes, g.notes, g.created_at`

func scanGrinder(row interface{ Scan(...any) error }) (*models.Grinder, error) {
	grinder := &models.Grinder{}
	var brand, burrType, burrSize, adjustmentNotes, notes sql.NullString
	var createdAt int64

	err := row.Scan(&grinder.RKey, &grinder.Name, &brand, &burrType, &burrSize, &adjustmentNotes, &notes, &createdAt, &grinder.HasImage)
	if err != nil {
		return nil, err
	}

	grinder.Brand = stringPtr(brand)
	grinder.BurrType = stringPtr(burrType)
	grinder.BurrSize = stringPtr(burrSize)
	grinder.AdjustmentNotes = stringPtr(adjustmentNotes)
	grinder.Notes = stringPtr(notes)
	grinder.CreatedAt = fromUnix(createdAt)
	return grinder, nil
}

func (s *SQLiteStore) CreateGrinder(ctx context.Context, req *models.CreateGrinderRequest) (*models.Grinder, error) {
	grinder := req.Grinder()
	if err := grinder.Validate(); err != nil {
		return nil, err
	}
	grinder.RKey = s.rkeys.Next()
	grinder.CreatedAt = s.now()

	err := s.withTx(ctx, "create grinder", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO grinders (rkey, name, brand, burr_type, burr_size, adjustment_notes, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, grinder.RKey, grinder.Name, nullString(grinder.Brand), nullString(grinder.BurrType),
			nullString(grinder.BurrSize), nullString(grinder.AdjustmentNotes), nullString(grinder.Notes), unixTime(grinder.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert grinder: %w", err)
		}
		return saveImage(ctx, tx, database.CollectionGrinder, grinder.RKey, grinder.ImageData)
	})
	if err != nil {
		return nil, err
	}

	return s.GetGrinderByRKey(ctx, grinder.RKey)
}

func (s *SQLiteStore) GetGrinderByRKey(ctx context.Context, rkey string) (*models.Grinder, error) {
	if err := checkRKey(database.CollectionGrinder, rkey); err != nil {
		return nil, err
	}
	grinder, err := getGrinder(ctx, s.db, rkey)
	return grinder, database.Persistence("get grinder", err)
}

func getGrinder(ctx context.Context, q querier, rkey string) (*models.Grinder, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+grinderColumns+`, `+hasImageExpr("g", database.CollectionGrinder)+`
		FROM grinders g
		WHERE g.rkey = ?
	`, rkey)

	grinder, err := scanGrinder(row)
	if err == sql.ErrNoRows {
		return nil, notFound(database.CollectionGrinder, rkey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grinder: %w", err)
	}

	if grinder.HasImage {
		if grinder.ImageData, err = loadImage(ctx, q, database.CollectionGrinder, rkey); err != nil {
			return nil, err
		}
	}
	return grinder, nil
}

func (s *SQLiteStore) ListGrinders(ctx context.Context, sort database.SortKey) ([]*models.Grinder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+grinderColumns+`, `+hasImageExpr("g", database.CollectionGrinder)+`
		FROM grinders g
		`+equipmentOrder(sort))
	if err != nil {
		return nil, database.Persistence("list grinders", err)
	}
	defer rows.Close()

	var grinders []*models.Grinder
	for rows.Next() {
		grinder, err := scanGrinder(rows)
		if err != nil {
			return nil, database.Persistence("list grinders", fmt.Errorf("failed to scan grinder: %w", err))
		}
		grinders = append(grinders, grinder)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Persistence("list grinders", err)
	}

	return grinders, nil
}

func (s *SQLiteStore) UpdateGrinder(ctx context.Context, rkey string, mutate func(*models.Grinder)) (*models.Grinder, error) {
	if err := checkRKey(database.CollectionGrinder, rkey); err != nil {
		return nil, err
	}

	err := s.withTx(ctx, "update grinder", func(tx *sql.Tx) error {
		current, err := getGrinder(ctx, tx, rkey)
		if err != nil {
			return err
		}

		grinder := current.Clone()
		mutate(grinder)
		grinder.RKey, grinder.CreatedAt = current.RKey, current.CreatedAt
		if err := grinder.Validate(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE grinders
			SET name = ?, brand = ?, burr_type = ?, burr_size = ?, adjustment_notes = ?, notes = ?
			WHERE rkey = ?
		`, grinder.Name, nullString(grinder.Brand), nullString(grinder.BurrType), nullString(grinder.BurrSize),
			nullString(grinder.AdjustmentNotes), nullString(grinder.Notes), rkey)
		if err != nil {
			return fmt.Errorf("failed to update grinder: %w", err)
		}
		return saveImage(ctx, tx, database.CollectionGrinder, rkey, grinder.ImageData)
	})
	if err != nil {
		return nil, err
	}

	return s.GetGrinderByRKey(ctx, rkey)
}

func (s *SQLiteStore) DeleteGrinderByRKey(ctx context.Context, rkey string) error {
	return s.deleteEquipment(ctx, "grinders", database.CollectionGrinder, database.RelationGrinder, rkey)
}

// ========== Brewer Operations ==========

const brewerColumns = `br.rkey, br.name, br.brand, br.brew_type, br.portafilter_size, br.basket_size, br.notes, br.created_at`

func scanBrewer(row interface{ Scan(...any) error }) (*models.Brewer, error) {
	brewer := &models.Brewer{}
	var brand, brewType, portafilterSize, basketSize, notes sql.NullString
	var createdAt int64

	err := row.Scan(&brewer.RKey, &brewer.Name, &brand, &brewType, &portafilterSize, &basketSize, &notes, &createdAt, &brewer.HasImage)
	if err != nil {
		return nil, err
	}

	brewer.Brand = stringPtr(brand)
	brewer.BrewType = stringPtr(brewType)
	brewer.PortafilterSize = stringPtr(portafilterSize)
	brewer.BasketSize = stringPtr(basketSize)
	brewer.Notes = stringPtr(notes)
	brewer.CreatedAt = fromUnix(createdAt)
	return brewer, nil
}

func (s *SQLiteStore) CreateBrewer(ctx context.Context, req *models.CreateBrewerRequest) (*models.Brewer, error) {
	brewer := req.Brewer()
	if err := brewer.Validate(); err != nil {
		return nil, err
	}
	brewer.RKey = s.rkeys.Next()
	brewer.CreatedAt = s.now()

	err := s.withTx(ctx, "create brewer", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO brewers (rkey, name, brand, brew_type, portafilter_size, basket_size, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, brewer.RKey, brewer.Name, nullString(brewer.Brand), nullString(brewer.BrewType),
			nullString(brewer.PortafilterSize), nullString(brewer.BasketSize), nullString(brewer.Notes), unixTime(brewer.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert brewer: %w", err)
		}
		return saveImage(ctx, tx, database.CollectionBrewer, brewer.RKey, brewer.ImageData)
	})
	if err != nil {
		return nil, err
	}

	return s.GetBrewerByRKey(ctx, brewer.RKey)
}

func (s *SQLiteStore) GetBrewerByRKey(ctx context.Context, rkey string) (*models.Brewer, error) {
	if err := checkRKey(database.CollectionBrewer, rkey); err != nil {
		return nil, err
	}
	brewer, err := getBrewer(ctx, s.db, rkey)
	return brewer, database.Persistence("get brewer", err)
}

func getBrewer(ctx context.Context, q querier, rkey string) (*models.Brewer, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+brewerColumns+`, `+hasImageExpr("br", database.CollectionBrewer)+`
		FROM brewers br
		WHERE br.rkey = ?
	`, rkey)

	brewer, err := scanBrewer(row)
	if err == sql.ErrNoRows {
		return nil, notFound(database.CollectionBrewer, rkey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brewer: %w", err)
	}

	if brewer.HasImage {
		if brewer.ImageData, err = loadImage(ctx, q, database.CollectionBrewer, rkey); err != nil {
			return nil, err
		}
	}
	return brewer, nil
}

func (s *SQLiteStore) ListBrewers(ctx context.Context, sort database.SortKey) ([]*models.Brewer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+brewerColumns+`, `+hasImageExpr("br", database.CollectionBrewer)+`
		FROM brewers br
		`+equipmentOrder(sort))
	if err != nil {
		return nil, database.Persistence("list brewers", err)
	}
	defer rows.Close()

	var brewers []*models.Brewer
	for rows.Next() {
		brewer, err := scanBrewer(rows)
		if err != nil {
			return nil, database.Persistence("list brewers", fmt.Errorf("failed to scan brewer: %w", err))
		}
		brewers = append(brewers, brewer)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Persistence("list brewers", err)
	}

	return brewers, nil
}

func (s *SQLiteStore) UpdateBrewer(ctx context.Context, rkey string, mutate func(*models.Brewer)) (*models.Brewer, error) {
	if err := checkRKey(database.CollectionBrewer, rkey); err != nil {
		return nil, err
	}

	err := s.withTx(ctx, "update brewer", func(tx *sql.Tx) error {
		current, err := getBrewer(ctx, tx, rkey)
		if err != nil {
			return err
		}

		brewer := current.Clone()
		mutate(brewer)
		brewer.RKey, brewer.CreatedAt = current.RKey, current.CreatedAt
		if err := brewer.Validate(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE brewers
			SET name = ?, brand = ?, brew_type = ?, portafilter_size = ?, basket_size = ?, notes = ?
			WHERE rkey = ?
		`, brewer.Name, nullString(brewer.Brand), nullString(brewer.BrewType), nullString(brewer.PortafilterSize),
			nullString(brewer.BasketSize), nullString(brewer.Notes), rkey)
		if err != nil {
			return fmt.Errorf("failed to update brewer: %w", err)
		}
		return saveImage(ctx, tx, database.CollectionBrewer, rkey, brewer.ImageData)
	})
	if err != nil {
		return nil, err
	}

	return s.GetBrewerByRKey(ctx, rkey)
}

func (s *SQLiteStore) DeleteBrewerByRKey(ctx context.Context, rkey string) error {
	return s.deleteEquipment(ctx, "brewers", database.CollectionBrewer, database.RelationBrewer, rkey)
}

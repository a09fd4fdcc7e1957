package catalog

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a lookup by id matches nothing.
var ErrNotFound = errors.New("not found")

// Store wraps the catalog database. It implements the read-only query
// capability the sizing engine consumes, plus the CRUD and history
// persistence the HTTP layer needs.
type Store struct {
	db *gorm.DB
}

func NewStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&Item{}, &Parameters{}, &InputRecord{}, &SizingRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Find returns the items of a category whose col attribute is present and
// non-zero, ordered ascending by that attribute. This is the query shape
// every selection routine relies on.
func (s *Store) Find(cat Category, col string) ([]Item, error) {
	if !IsNumericColumn(col) {
		return nil, fmt.Errorf("not an orderable catalog column: %q", col)
	}
	var items []Item
	result := s.db.Where("category = ?", cat).
		Where(col + " IS NOT NULL").
		Where(col + " <> 0").
		Order(col + " asc").
		Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	return items, nil
}

func (s *Store) CreateItem(item *Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	return s.db.Create(item).Error
}

func (s *Store) GetItem(id uint) (*Item, error) {
	var item Item
	result := s.db.First(&item, id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &item, nil
}

// ListItems returns all items, optionally restricted to one category.
func (s *Store) ListItems(cat Category) ([]Item, error) {
	var items []Item
	q := s.db.Order("category, reference")
	if cat != "" {
		q = q.Where("category = ?", cat)
	}
	result := q.Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	return items, nil
}

func (s *Store) UpdateItem(item *Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	return s.db.Save(item).Error
}

func (s *Store) DeleteItem(id uint) error {
	result := s.db.Delete(&Item{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// EffectiveParameters returns the current global parameter set, creating
// it with defaults on first access. When several rows exist the most
// recently updated one wins.
func (s *Store) EffectiveParameters() (*Parameters, error) {
	var params Parameters
	result := s.db.Order("updated_at desc, id desc").First(&params)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		params = Parameters{
			GlobalEfficiency:    0.75,
			SafetyCoefficient:   1.30,
			DepthOfDischarge:    0.50,
			InverterCoefficient: 1.25,
			MaxOversize:         0.25,
			CurrentSafetyMargin: 1.25,
		}
		if err := s.db.Create(&params).Error; err != nil {
			return nil, err
		}
		return &params, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &params, nil
}

// UpdateParameters applies an administrative update to the effective
// parameter row.
func (s *Store) UpdateParameters(update *Parameters) (*Parameters, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	current, err := s.EffectiveParameters()
	if err != nil {
		return nil, err
	}
	current.GlobalEfficiency = update.GlobalEfficiency
	current.SafetyCoefficient = update.SafetyCoefficient
	current.DepthOfDischarge = update.DepthOfDischarge
	current.InverterCoefficient = update.InverterCoefficient
	current.MaxOversize = update.MaxOversize
	current.CurrentSafetyMargin = update.CurrentSafetyMargin
	if err := s.db.Save(current).Error; err != nil {
		return nil, err
	}
	return current, nil
}

// SaveCalculation persists the input echo and its sizing record as one
// atomic pair. Associated rows (items, parameters) are referenced by id,
// never written here.
func (s *Store) SaveCalculation(input *InputRecord, record *SizingRecord) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(input).Error; err != nil {
			return err
		}
		record.InputID = input.ID
		return tx.Omit(clause.Associations).Create(record).Error
	})
}

func (s *Store) GetRecord(id uint) (*SizingRecord, error) {
	var record SizingRecord
	result := s.recordQuery().First(&record, id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &record, nil
}

func (s *Store) ListRecords(limit int) ([]SizingRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []SizingRecord
	result := s.recordQuery().Order("calculated_at desc").Limit(limit).Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

func (s *Store) recordQuery() *gorm.DB {
	return s.db.
		Preload("Input").
		Preload("Parameters").
		Preload("Panel").
		Preload("Battery").
		Preload("Controller").
		Preload("Inverter").
		Preload("Cable")
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

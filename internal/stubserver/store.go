package stubserver

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	consentmodel "github.com/frahmantamala/consent-management/internal/core/datamodel/consent"
)

// Store is the stub's persistence layer. Record CRUD goes through the
// ORM; the event feed and aggregate counts use raw SQL over the shared
// pool.
type Store struct {
	db     *gorm.DB
	events *sqlx.DB
}

func NewStore(db *gorm.DB, events *sqlx.DB) *Store {
	return &Store{db: db, events: events}
}

// ListFilter mirrors the supported list query parameters.
type ListFilter struct {
	Page        int
	Limit       int
	Search      string
	Status      string
	FiduciaryID int64
	DateFrom    string
	DateTo      string
}

func (f ListFilter) offset() int {
	return (f.Page - 1) * f.Limit
}

func (s *Store) consentQuery(userID int64, f ListFilter) *gorm.DB {
	q := s.db.Model(&consentmodel.Consent{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if f.Status != "" {
		q = q.Where("LOWER(status) = ?", strings.ToLower(f.Status))
	}
	if f.Search != "" {
		needle := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(entity) LIKE ? OR LOWER(purpose_text) LIKE ?", needle, needle)
	}
	if f.FiduciaryID != 0 {
		q = q.Where("fiduciary_id = ?", f.FiduciaryID)
	}
	if f.DateFrom != "" {
		q = q.Where("requested_at >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		q = q.Where("requested_at <= ?", f.DateTo)
	}
	return q
}

// ListConsents returns one page of consents plus the filter-scoped
// total. Pass a zero userID for the admin view over all users.
func (s *Store) ListConsents(userID int64, f ListFilter) ([]consentmodel.Consent, int, error) {
	var total int64
	if err := s.consentQuery(userID, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var consents []consentmodel.Consent
	err := s.consentQuery(userID, f).
		Order("requested_at DESC").
		Offset(f.offset()).
		Limit(f.Limit).
		Find(&consents).Error
	return consents, int(total), err
}

// ConsentStatusCounts aggregates the whole filtered collection, not
// just the returned page, so dashboard totals stay page-independent.
func (s *Store) ConsentStatusCounts(userID int64, f ListFilter) (map[string]int, error) {
	scoped := f
	scoped.Status = ""

	rows := []struct {
		Status string
		N      int
	}{}
	err := s.consentQuery(userID, scoped).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	total := 0
	for _, row := range rows {
		counts[strings.ToLower(row.Status)] += row.N
		total += row.N
	}
	counts["total"] = total
	return counts, nil
}

func (s *Store) GetConsent(id int64) (*consentmodel.Consent, error) {
	var c consentmodel.Consent
	err := s.db.Where("id = ?", id).First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) SaveConsent(c *consentmodel.Consent) error {
	return s.db.Save(c).Error
}

// ListNotifications is the pending-first, newest-first notification
// window for one user.
func (s *Store) ListNotifications(userID int64, f ListFilter) ([]consentmodel.Consent, int, error) {
	q := s.db.Model(&consentmodel.Consent{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var consents []consentmodel.Consent
	err := q.Order("requested_at DESC").
		Offset(f.offset()).
		Limit(f.Limit).
		Find(&consents).Error
	return consents, int(total), err
}

func (s *Store) touchFiduciaryEvent(fiduciaryID int64, eventType, description string) error {
	_, err := s.events.Exec(
		s.events.Rebind("INSERT INTO fiduciary_events (fiduciary_id, event_type, description, occurred_at) VALUES (?, ?, ?, ?)"),
		fiduciaryID, eventType, description, time.Now().UTC(),
	)
	return err
}

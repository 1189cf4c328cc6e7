package stubserver

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/consent-management/internal/core/datamodel/directory"
	feedbackmodel "github.com/frahmantamala/consent-management/internal/core/datamodel/feedback"
	"github.com/frahmantamala/consent-management/internal/core/datamodel/integration"
)

// ---------- directory ----------

func (s *Store) GetUserByID(id int64) (*directory.User, error) {
	var u directory.User
	err := s.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(email string) (*directory.User, error) {
	var u directory.User
	err := s.db.Where("LOWER(email) = ?", strings.ToLower(email)).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) SaveUser(u *directory.User) error {
	return s.db.Save(u).Error
}

func (s *Store) ListUsersWithRoles(f ListFilter) ([]directory.User, int, error) {
	q := s.db.Model(&directory.User{})
	if f.Search != "" {
		needle := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", needle, needle)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []directory.User
	err := q.Order("name ASC").Offset(f.offset()).Limit(f.Limit).Find(&users).Error
	return users, int(total), err
}

func (s *Store) RolesFor(email string) ([]directory.UserRole, error) {
	var roles []directory.UserRole
	err := s.db.Where("LOWER(user_email) = ?", strings.ToLower(email)).
		Order("assigned_at ASC").
		Find(&roles).Error
	return roles, err
}

func (s *Store) AssignRole(email, role, assignedBy string) error {
	var existing directory.UserRole
	err := s.db.Where("LOWER(user_email) = ? AND role = ?", strings.ToLower(email), role).
		First(&existing).Error
	if err == nil {
		// already assigned, keep idempotent
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	return s.db.Create(&directory.UserRole{
		UserEmail:  email,
		Role:       role,
		AssignedAt: time.Now().UTC(),
		AssignedBy: assignedBy,
	}).Error
}

func (s *Store) RemoveRole(email, role string) (bool, error) {
	res := s.db.Where("LOWER(user_email) = ? AND role = ?", strings.ToLower(email), role).
		Delete(&directory.UserRole{})
	return res.RowsAffected > 0, res.Error
}

// PlatformMetrics runs the headline counts as one raw pass.
func (s *Store) PlatformMetrics() (users, fiduciaries, admins, consents int, err error) {
	if err = s.events.Get(&users, "SELECT COUNT(*) FROM users"); err != nil {
		return
	}
	if err = s.events.Get(&fiduciaries, "SELECT COUNT(*) FROM fiduciaries"); err != nil {
		return
	}
	if err = s.events.Get(&admins, s.events.Rebind("SELECT COUNT(*) FROM users WHERE primary_role = ? OR is_super_admin"), "admin"); err != nil {
		return
	}
	err = s.events.Get(&consents, "SELECT COUNT(*) FROM consents")
	return
}

// ---------- fiduciaries ----------

// FiduciaryRow joins the registry row with its consent volume.
type FiduciaryRow struct {
	directory.Fiduciary
	ConsentCount int
}

func (s *Store) ListFiduciaries(f ListFilter) ([]FiduciaryRow, int, error) {
	q := s.db.Model(&directory.Fiduciary{})
	if f.Search != "" {
		needle := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sector) LIKE ?", needle, needle)
	}
	if f.Status != "" {
		q = q.Where("LOWER(status) = ?", strings.ToLower(f.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var fiduciaries []directory.Fiduciary
	if err := q.Order("name ASC").Offset(f.offset()).Limit(f.Limit).Find(&fiduciaries).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]FiduciaryRow, len(fiduciaries))
	for i, fid := range fiduciaries {
		n, err := s.ConsentCountFor(fid.ID)
		if err != nil {
			return nil, 0, err
		}
		rows[i] = FiduciaryRow{Fiduciary: fid, ConsentCount: n}
	}
	return rows, int(total), nil
}

func (s *Store) ConsentCountFor(fiduciaryID int64) (int, error) {
	var n int
	err := s.events.Get(&n, s.events.Rebind("SELECT COUNT(*) FROM consents WHERE fiduciary_id = ?"), fiduciaryID)
	return n, err
}

func (s *Store) SaveFiduciary(f *directory.Fiduciary) error {
	return s.db.Save(f).Error
}

func (s *Store) GetFiduciary(id int64) (*directory.Fiduciary, error) {
	var fid directory.Fiduciary
	err := s.db.Where("id = ?", id).First(&fid).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &fid, nil
}

func (s *Store) UpdateFiduciaryStatus(id int64, status string) (bool, error) {
	res := s.db.Model(&directory.Fiduciary{}).Where("id = ?", id).Update("status", status)
	return res.RowsAffected > 0, res.Error
}

// EventRow is one activity-feed entry read via the raw pool.
type EventRow struct {
	ID          int64     `db:"id"`
	FiduciaryID int64     `db:"fiduciary_id"`
	EventType   string    `db:"event_type"`
	Description string    `db:"description"`
	OccurredAt  time.Time `db:"occurred_at"`
}

func (s *Store) ListEvents(f ListFilter) ([]EventRow, int, error) {
	where := ""
	args := []any{}
	if f.FiduciaryID != 0 {
		where = " WHERE fiduciary_id = ?"
		args = append(args, f.FiduciaryID)
	}

	var total int
	if err := s.events.Get(&total, s.events.Rebind("SELECT COUNT(*) FROM fiduciary_events"+where), args...); err != nil {
		return nil, 0, err
	}

	rows := []EventRow{}
	listArgs := append(args, f.Limit, f.offset())
	err := s.events.Select(&rows,
		s.events.Rebind("SELECT id, fiduciary_id, event_type, description, occurred_at FROM fiduciary_events"+where+" ORDER BY occurred_at DESC LIMIT ? OFFSET ?"),
		listArgs...)
	return rows, total, err
}

// ---------- DPOs ----------

func (s *Store) ListDPOs(fiduciaryID int64) ([]directory.DPO, error) {
	q := s.db.Model(&directory.DPO{})
	if fiduciaryID != 0 {
		q = q.Where("fiduciary_id = ?", fiduciaryID)
	}
	var dpos []directory.DPO
	err := q.Order("is_primary DESC, name ASC").Find(&dpos).Error
	return dpos, err
}

func (s *Store) GetDPO(id int64) (*directory.DPO, error) {
	var d directory.DPO
	err := s.db.Where("id = ?", id).First(&d).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (s *Store) CreateDPO(d *directory.DPO) error {
	return s.db.Create(d).Error
}

func (s *Store) SaveDPO(d *directory.DPO) error {
	return s.db.Save(d).Error
}

func (s *Store) DeleteDPO(id int64) (bool, error) {
	res := s.db.Where("id = ?", id).Delete(&directory.DPO{})
	return res.RowsAffected > 0, res.Error
}

// ---------- integration ----------

func (s *Store) ListAPIKeys(fiduciaryID int64, f ListFilter) ([]integration.APIKey, int, error) {
	q := s.db.Model(&integration.APIKey{})
	if fiduciaryID != 0 {
		q = q.Where("fiduciary_id = ?", fiduciaryID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var keys []integration.APIKey
	err := q.Order("created_at DESC").Offset(f.offset()).Limit(f.Limit).Find(&keys).Error
	return keys, int(total), err
}

func (s *Store) GetAPIKey(id int64) (*integration.APIKey, error) {
	var k integration.APIKey
	err := s.db.Where("id = ?", id).First(&k).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &k, nil
}

func (s *Store) CreateAPIKey(k *integration.APIKey) error {
	return s.db.Create(k).Error
}

func (s *Store) SaveAPIKey(k *integration.APIKey) error {
	return s.db.Save(k).Error
}

func (s *Store) DeleteAPIKey(id int64) (bool, error) {
	res := s.db.Where("id = ?", id).Delete(&integration.APIKey{})
	return res.RowsAffected > 0, res.Error
}

func (s *Store) ListWebhooks(fiduciaryID int64, f ListFilter) ([]integration.Webhook, int, error) {
	q := s.db.Model(&integration.Webhook{})
	if fiduciaryID != 0 {
		q = q.Where("fiduciary_id = ?", fiduciaryID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var hooks []integration.Webhook
	err := q.Order("created_at DESC").Offset(f.offset()).Limit(f.Limit).Find(&hooks).Error
	return hooks, int(total), err
}

func (s *Store) GetWebhook(id int64) (*integration.Webhook, error) {
	var h integration.Webhook
	err := s.db.Where("id = ?", id).First(&h).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func (s *Store) CreateWebhook(h *integration.Webhook) error {
	return s.db.Create(h).Error
}

func (s *Store) SaveWebhook(h *integration.Webhook) error {
	return s.db.Save(h).Error
}

func (s *Store) DeleteWebhook(id int64) (bool, error) {
	res := s.db.Where("id = ?", id).Delete(&integration.Webhook{})
	return res.RowsAffected > 0, res.Error
}

// ActiveWebhooks are the delivery targets for one fiduciary's consent
// state changes.
func (s *Store) ActiveWebhooks(fiduciaryID int64) ([]integration.Webhook, error) {
	var hooks []integration.Webhook
	err := s.db.Where("fiduciary_id = ? AND status = ?", fiduciaryID, "active").Find(&hooks).Error
	return hooks, err
}

func (s *Store) ListPurposeCodes(f ListFilter) ([]integration.PurposeCode, int, error) {
	q := s.db.Model(&integration.PurposeCode{})
	if f.Search != "" {
		needle := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(purpose) LIKE ?", needle)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var codes []integration.PurposeCode
	err := q.Order("code ASC").Offset(f.offset()).Limit(f.Limit).Find(&codes).Error
	return codes, int(total), err
}

func (s *Store) CreatePurposeCode(p *integration.PurposeCode) error {
	return s.db.Create(p).Error
}

func (s *Store) DeletePurposeCode(id int64) (bool, error) {
	res := s.db.Where("id = ?", id).Delete(&integration.PurposeCode{})
	return res.RowsAffected > 0, res.Error
}

// ---------- feedback ----------

func (s *Store) CreateFeedback(f *feedbackmodel.Feedback) error {
	return s.db.Create(f).Error
}

func (s *Store) ListFeedback(f ListFilter) ([]feedbackmodel.Feedback, int, error) {
	q := s.db.Model(&feedbackmodel.Feedback{})
	if f.Search != "" {
		needle := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(message) LIKE ?", needle, needle)
	}
	if f.Status == "resolved" {
		q = q.Where("response IS NOT NULL")
	} else if f.Status == "open" {
		q = q.Where("response IS NULL")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []feedbackmodel.Feedback
	err := q.Order("created_at DESC").Offset(f.offset()).Limit(f.Limit).Find(&entries).Error
	return entries, int(total), err
}

func (s *Store) GetFeedback(id int64) (*feedbackmodel.Feedback, error) {
	var entry feedbackmodel.Feedback
	err := s.db.Where("id = ?", id).First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (s *Store) SaveFeedback(f *feedbackmodel.Feedback) error {
	return s.db.Save(f).Error
}

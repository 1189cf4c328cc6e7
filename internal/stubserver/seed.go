package stubserver

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	consentmodel "github.com/frahmantamala/consent-management/internal/core/datamodel/consent"
	"github.com/frahmantamala/consent-management/internal/core/datamodel/directory"
	feedbackmodel "github.com/frahmantamala/consent-management/internal/core/datamodel/feedback"
	"github.com/frahmantamala/consent-management/internal/core/datamodel/integration"
)

// Seed fills the stub database with a small consistent dataset for
// local development. Idempotent: existing rows are left alone.
func Seed(db *gorm.DB, clear bool) error {
	if clear {
		for _, model := range []any{
			&consentmodel.Consent{}, &integration.APIKey{}, &integration.Webhook{},
			&integration.PurposeCode{}, &integration.FiduciaryEvent{},
			&directory.DPO{}, &directory.UserRole{}, &directory.Fiduciary{},
			&directory.User{}, &feedbackmodel.Feedback{},
		} {
			if err := db.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("clear table: %w", err)
			}
		}
	}

	var count int64
	if err := db.Model(&directory.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	users := []directory.User{
		{Name: "Asha Verma", Email: "asha@mail.com", Phone: "9876543210", PrimaryRole: "user"},
		{Name: "Rohan Iyer", Email: "rohan@mail.com", Phone: "9876501234", PrimaryRole: "fiduciary"},
		{Name: "Meera Nair", Email: "meera@mail.com", Phone: "9998877665", PrimaryRole: "admin"},
		{Name: "Dev Kapoor", Email: "dev@mail.com", Phone: "9123456780", PrimaryRole: "admin", IsSuperAdmin: true},
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}

	fiduciaries := []directory.Fiduciary{
		{Name: "Horizon Bank", Email: "dpo@horizonbank.example", Sector: "Banking", Status: "Active"},
		{Name: "MediTrust Labs", Email: "privacy@meditrust.example", Sector: "Healthcare", Status: "Active"},
		{Name: "QuickCart", Email: "legal@quickcart.example", Sector: "Retail", Status: "Suspended"},
	}
	if err := db.Create(&fiduciaries).Error; err != nil {
		return err
	}

	now := time.Now().UTC()
	granted := now.Add(-48 * time.Hour)
	expiry := now.Add(90 * 24 * time.Hour)

	consents := []consentmodel.Consent{
		{UserID: users[0].ID, FiduciaryID: fiduciaries[0].ID, Entity: "Horizon Bank", DataItems: "PAN, Account Number", PurposeCode: "101", PurposeText: "Credit assessment", RequestedAt: now.Add(-2 * time.Hour), Expiry: &expiry, Status: "Pending"},
		{UserID: users[0].ID, FiduciaryID: fiduciaries[0].ID, Entity: "Horizon Bank", DataItems: "Transaction History", PurposeCode: "102", PurposeText: "Fraud monitoring", RequestedAt: now.Add(-72 * time.Hour), GrantedAt: &granted, Status: "Active", IsRead: 1},
		{UserID: users[0].ID, FiduciaryID: fiduciaries[1].ID, Entity: "MediTrust Labs", DataItems: "Lab Reports", PurposeCode: "201", PurposeText: "Diagnosis sharing", RequestedAt: now.Add(-24 * time.Hour), Status: "Pending"},
		{UserID: users[0].ID, FiduciaryID: fiduciaries[2].ID, Entity: "QuickCart", DataItems: "Purchase History", PurposeCode: "301", PurposeText: "Personalized offers", RequestedAt: now.Add(-30 * 24 * time.Hour), Status: "Expired", IsRead: 1},
	}
	if err := db.Create(&consents).Error; err != nil {
		return err
	}

	purposes := []integration.PurposeCode{
		{FiduciaryID: fiduciaries[0].ID, Code: 101, Purpose: "Credit assessment"},
		{FiduciaryID: fiduciaries[0].ID, Code: 102, Purpose: "Fraud monitoring"},
		{FiduciaryID: fiduciaries[1].ID, Code: 201, Purpose: "Diagnosis sharing"},
	}
	if err := db.Create(&purposes).Error; err != nil {
		return err
	}

	secret := "ck_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	keys := []integration.APIKey{
		{FiduciaryID: fiduciaries[0].ID, KeyName: "prod ingest", KeyPrefix: secret[:12], SecretHash: string(hash), Environment: "test", Status: "active"},
	}
	if err := db.Create(&keys).Error; err != nil {
		return err
	}

	hooks := []integration.Webhook{
		{FiduciaryID: fiduciaries[0].ID, URL: "https://hooks.horizonbank.example/consents", Status: "active", Events: "consent.status_changed"},
	}
	if err := db.Create(&hooks).Error; err != nil {
		return err
	}

	dpos := []directory.DPO{
		{FiduciaryID: fiduciaries[0].ID, Name: "Nisha Rao", Email: "nisha@horizonbank.example", Phone: "9012345678", IsPrimary: true},
		{FiduciaryID: fiduciaries[1].ID, Name: "Arjun Menon", Email: "arjun@meditrust.example", Phone: "9023456789", IsPrimary: true},
	}
	if err := db.Create(&dpos).Error; err != nil {
		return err
	}

	roles := []directory.UserRole{
		{UserEmail: users[1].Email, Role: "Admin", AssignedAt: now.Add(-10 * 24 * time.Hour), AssignedBy: users[3].Email},
	}
	if err := db.Create(&roles).Error; err != nil {
		return err
	}

	events := []integration.FiduciaryEvent{
		{FiduciaryID: fiduciaries[0].ID, EventType: "fiduciary.registered", Description: "registered on the platform", OccurredAt: now.Add(-60 * 24 * time.Hour)},
		{FiduciaryID: fiduciaries[2].ID, EventType: "fiduciary.status_changed", Description: "status set to Suspended", OccurredAt: now.Add(-5 * 24 * time.Hour)},
	}
	if err := db.Create(&events).Error; err != nil {
		return err
	}

	entries := []feedbackmodel.Feedback{
		{Name: "Asha Verma", Email: "asha@mail.com", Category: "usability", Message: "The consent expiry date is hard to find on small screens."},
	}
	return db.Create(&entries).Error
}

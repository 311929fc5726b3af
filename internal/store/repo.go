package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

type Repo struct {
	db *gorm.DB
}

func OpenPostgres(user, password, dbName, host, port, sslMode string) (*gorm.DB, error) {
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		host, user, password, dbName, port, sslMode)
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

func New(db *gorm.DB) (*Repo, error) {
	if err := db.AutoMigrate(&Device{}, &TelemetryPoint{}); err != nil {
		return nil, err
	}
	return &Repo{db: db}, nil
}

// NewWebhookID generates the random token embedded in the webhook path.
// 16 random bytes hex-encoded, so the URL is not guessable.
func NewWebhookID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	return hex.EncodeToString(buf)
}

// --- Devices ---

func (r *Repo) CreateDevice(ctx context.Context, d *Device) error {
	d.Name = strings.ToLower(strings.TrimSpace(d.Name))
	if d.Name == "" {
		return errors.New("name is required")
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.WebhookID == "" {
		d.WebhookID = NewWebhookID()
	}
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *Repo) ListDevices(ctx context.Context) ([]Device, error) {
	var rows []Device
	err := r.db.WithContext(ctx).Order("created_at asc").Find(&rows).Error
	return rows, err
}

func (r *Repo) GetDevice(ctx context.Context, id uuid.UUID) (*Device, error) {
	var d Device
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &d, err
}

func (r *Repo) GetDeviceByWebhookID(ctx context.Context, webhookID string) (*Device, error) {
	var d Device
	err := r.db.WithContext(ctx).First(&d, "webhook_id = ?", webhookID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &d, err
}

func (r *Repo) GetDeviceByName(ctx context.Context, name string) (*Device, error) {
	var d Device
	err := r.db.WithContext(ctx).First(&d, "name = ?", strings.ToLower(strings.TrimSpace(name))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &d, err
}

func (r *Repo) DeleteDevice(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&TelemetryPoint{}, "device_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&Device{}, "id = ?", id).Error
	})
}

// --- Telemetry history ---

func (r *Repo) InsertTelemetryPoint(ctx context.Context, p *TelemetryPoint) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.IngestedAt.IsZero() {
		p.IngestedAt = time.Now().UTC()
	}
	if p.TS.IsZero() {
		p.TS = p.IngestedAt
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repo) ListTelemetryPoints(ctx context.Context, deviceID uuid.UUID, since time.Time, limit int) ([]TelemetryPoint, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	q := r.db.WithContext(ctx).Where("device_id = ?", deviceID)
	if !since.IsZero() {
		q = q.Where("ts >= ?", since)
	}
	var rows []TelemetryPoint
	err := q.Order("ts desc").Limit(limit).Find(&rows).Error
	return rows, err
}

// PruneTelemetry drops history points older than the cutoff and returns
// how many rows went away. Driven by the retention cron job.
func (r *Repo) PruneTelemetry(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&TelemetryPoint{}, "ts < ?", cutoff)
	return res.RowsAffected, res.Error
}

package core

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// repository depends on the generic *gorm.DB so any GORM dialect can back it.
type repository struct {
	db *gorm.DB
}

// NewDeviceRepository returns a DeviceStore backed by GORM.
func NewDeviceRepository(db *gorm.DB) DeviceStore {
	return &repository{db: db}
}

// Models lists every table the repository needs migrated.
func Models() []interface{} {
	return []interface{}{
		&Device{},
	}
}

func (r *repository) AddDevice(ctx context.Context, d *Device) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(d)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) GetDevice(ctx context.Context, id DeviceIdentifier) (*Device, error) {
	var d Device
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND device_type = ?", id.ID, id.Type).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) ListDevices(ctx context.Context, deviceType string) ([]*Device, error) {
	devices := make([]*Device, 0)
	err := r.db.WithContext(ctx).
		Where("device_type = ?", deviceType).
		Order("device_id").
		Find(&devices).Error
	return devices, err
}

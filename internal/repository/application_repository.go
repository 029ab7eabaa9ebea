package repository

import (
	"cuerpofit_backend/internal/model"

	"gorm.io/gorm"
)

type ApplicationRepository struct {
	DB *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{DB: db}
}

func (r *ApplicationRepository) Create(app *model.Application) error {
	return r.DB.Create(app).Error
}

func (r *ApplicationRepository) FindByID(id uint) (*model.Application, error) {
	var app model.Application
	if err := r.DB.First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepository) List(page, limit int) ([]model.Application, int64, error) {
	var apps []model.Application
	var total int64

	if err := r.DB.Model(&model.Application{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	err := r.DB.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&apps).Error
	return apps, total, err
}

func (r *ApplicationRepository) SaveTranscodeRecord(rec *model.TranscodeRecord) error {
	return r.DB.Create(rec).Error
}

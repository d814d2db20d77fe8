package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/catalogsync"
)

// StoreModel is the persistence model for the Store entity
type StoreModel struct {
	BaseModel
	UserID          uuid.UUID                `gorm:"type:uuid;not null;index:idx_stores_user"`
	Name            string                   `gorm:"type:varchar(200);not null"`
	Platform        catalogsync.PlatformCode `gorm:"type:varchar(20);not null"`
	BaseURL         string                   `gorm:"type:varchar(500);not null"`
	CredentialsJSON string                   `gorm:"type:jsonb;column:credentials;not null"`
}

// TableName returns the table name for GORM
func (StoreModel) TableName() string {
	return "stores"
}

// ToDomain converts the persistence model to a domain Store
func (m *StoreModel) ToDomain() (*catalogsync.Store, error) {
	s := &catalogsync.Store{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		Name:       m.Name,
		Platform:   m.Platform,
		BaseURL:    m.BaseURL,
	}
	if m.CredentialsJSON != "" {
		if err := json.Unmarshal([]byte(m.CredentialsJSON), &s.Credentials); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// FromDomain populates the persistence model from a domain Store
func (m *StoreModel) FromDomain(s *catalogsync.Store) error {
	creds, err := json.Marshal(s.Credentials)
	if err != nil {
		return err
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	m.UserID = s.UserID
	m.Name = s.Name
	m.Platform = s.Platform
	m.BaseURL = s.BaseURL
	m.CredentialsJSON = string(creds)
	return nil
}

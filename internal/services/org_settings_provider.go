package services

import (
	"github.com/waynekuvi/appointflow-backend/internal/models"
)

// OrganizationStore is the persistence surface the settings provider needs
type OrganizationStore interface {
	GetByID(id string) (*models.Organization, error)
}

// OrgSettingsProvider reads messaging settings from the organization row
type OrgSettingsProvider struct {
	orgRepo OrganizationStore
}

func NewOrgSettingsProvider(orgRepo OrganizationStore) *OrgSettingsProvider {
	return &OrgSettingsProvider{orgRepo: orgRepo}
}

// MessagingSettings implements MessagingSettingsProvider
func (p *OrgSettingsProvider) MessagingSettings(orgID string) (*MessagingSettings, error) {
	org, err := p.orgRepo.GetByID(orgID)
	if err != nil {
		return nil, err
	}
	return &MessagingSettings{
		Enabled:  org.MessagingEnabled,
		RelayURL: org.RelayWebhookURL,
	}, nil
}

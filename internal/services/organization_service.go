package services

import (
	"errors"
	"fmt"

	"github.com/waynekuvi/appointflow-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// OrganizationWriter extends OrganizationStore with updates
type OrganizationWriter interface {
	OrganizationStore
	Update(org *models.Organization) error
}

type OrganizationService struct {
	orgRepo OrganizationWriter
}

func NewOrganizationService(orgRepo OrganizationWriter) *OrganizationService {
	return &OrganizationService{orgRepo: orgRepo}
}

// GetMessagingSettings returns an organization's messaging settings
func (s *OrganizationService) GetMessagingSettings(orgID string) (*models.MessagingSettingsResponse, error) {
	org, err := s.orgRepo.GetByID(orgID)
	if err != nil {
		return nil, errors.New("organization not found")
	}
	return s.toSettingsResponse(org), nil
}

// UpdateMessagingSettings updates an organization's messaging settings. The
// relay secret is stored as a bcrypt hash; passing an empty string clears it.
func (s *OrganizationService) UpdateMessagingSettings(orgID string, req *models.UpdateMessagingSettingsRequest) (*models.MessagingSettingsResponse, error) {
	org, err := s.orgRepo.GetByID(orgID)
	if err != nil {
		return nil, errors.New("organization not found")
	}

	if req.MessagingEnabled != nil {
		org.MessagingEnabled = *req.MessagingEnabled
	}
	if req.RelayWebhookURL != nil {
		org.RelayWebhookURL = *req.RelayWebhookURL
	}
	if req.RelaySecret != nil {
		if *req.RelaySecret == "" {
			org.RelaySecretHash = ""
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.RelaySecret), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("failed to hash relay secret: %w", err)
			}
			org.RelaySecretHash = string(hash)
		}
	}

	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return s.toSettingsResponse(org), nil
}

// VerifyRelaySecret checks a presented secret against the organization's
// stored hash. Organizations without a configured secret accept any caller.
func (s *OrganizationService) VerifyRelaySecret(orgID, presented string) (bool, error) {
	org, err := s.orgRepo.GetByID(orgID)
	if err != nil {
		return false, err
	}
	if org.RelaySecretHash == "" {
		return true, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(org.RelaySecretHash), []byte(presented)); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *OrganizationService) toSettingsResponse(org *models.Organization) *models.MessagingSettingsResponse {
	return &models.MessagingSettingsResponse{
		OrganizationID:   org.ID,
		MessagingEnabled: org.MessagingEnabled,
		RelayWebhookURL:  org.RelayWebhookURL,
		RelaySecretSet:   org.RelaySecretHash != "",
	}
}

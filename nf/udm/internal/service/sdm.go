package service

import (
	"context"
	"fmt"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/metrics"
	"github.com/fivegcore/emulator/nf/udm/internal/client"
	"github.com/fivegcore/emulator/nf/udm/internal/repository"
	"go.uber.org/zap"
)

// SDMService handles Subscriber Data Management (Nudm_SDM).
type SDMService struct {
	repo   repository.Repository
	logger *zap.Logger
}

// NewSDMService creates a new SDM service.
func NewSDMService(repo repository.Repository, logger *zap.Logger) *SDMService {
	return &SDMService{repo: repo, logger: logger}
}

// AccessAndMobilitySubscriptionData represents AM subscription data (TS 29.503)
type AccessAndMobilitySubscriptionData struct {
	GPSIS                  []string                `json:"gpsis,omitempty"`
	SubscribedUeAMBR       *AMBR                   `json:"subscribedUeAmbr,omitempty"`
	NSSAI                  *NSSAI                  `json:"nssai,omitempty"`
	RatRestrictions        []string                `json:"ratRestrictions,omitempty"`
	ForbiddenAreas         []interface{}           `json:"forbiddenAreas,omitempty"`
	ServiceAreaRestriction *ServiceAreaRestriction `json:"serviceAreaRestriction,omitempty"`
}

// AMBR represents Aggregate Maximum Bit Rate
type AMBR struct {
	Uplink   string `json:"uplink"`   // e.g., "1000000000" (1 Gbps)
	Downlink string `json:"downlink"` // e.g., "2000000000" (2 Gbps)
}

// NSSAI represents Network Slice Selection Assistance Information
type NSSAI struct {
	DefaultSingleNSSAIs []client.SNSSAI `json:"defaultSingleNssais,omitempty"`
	SingleNSSAIs        []client.SNSSAI `json:"singleNssais,omitempty"`
}

// ServiceAreaRestriction represents service area restrictions
type ServiceAreaRestriction struct {
	RestrictionType string        `json:"restrictionType,omitempty"`
	Areas           []interface{} `json:"areas,omitempty"`
}

// SessionManagementSubscriptionData represents SM subscription data (TS 29.503)
type SessionManagementSubscriptionData struct {
	SingleNSSAI       client.SNSSAI                `json:"singleNssai"`
	DnnConfigurations map[string]*DnnConfiguration `json:"dnnConfigurations,omitempty"`
}

// DnnConfiguration represents DNN configuration
type DnnConfiguration struct {
	PduSessionTypes *PduSessionTypes `json:"pduSessionTypes,omitempty"`
	SscModes        *SscModes        `json:"sscModes,omitempty"`
	SessionAMBR     *AMBR            `json:"sessionAmbr,omitempty"`
	Var5gQosProfile *Var5gQosProfile `json:"5gQosProfile,omitempty"`
	StaticIPAddress []string         `json:"staticIpAddress,omitempty"`
}

// PduSessionTypes represents PDU session types
type PduSessionTypes struct {
	DefaultSessionType  string   `json:"defaultSessionType"`
	AllowedSessionTypes []string `json:"allowedSessionTypes,omitempty"`
}

// SscModes represents SSC modes
type SscModes struct {
	DefaultSscMode  string   `json:"defaultSscMode"`
	AllowedSscModes []string `json:"allowedSscModes,omitempty"`
}

// Var5gQosProfile represents 5G QoS profile
type Var5gQosProfile struct {
	Var5qi        int  `json:"5qi"`
	PriorityLevel int  `json:"priorityLevel,omitempty"`
	ARP           *ARP `json:"arp,omitempty"`
}

// ARP represents Allocation and Retention Priority
type ARP struct {
	PriorityLevel int    `json:"priorityLevel"`
	PreemptCap    string `json:"preemptCap,omitempty"`
	PreemptVuln   string `json:"preemptVuln,omitempty"`
}

// GetAMData retrieves Access and Mobility subscription data. Unknown SUPI is
// "not-found" (spec §4.2).
func (s *SDMService) GetAMData(ctx context.Context, supi string, plmnID *client.PLMNID) (*AccessAndMobilitySubscriptionData, error) {
	s.logger.Info("getting AM subscription data", zap.String("supi", supi))

	subData, err := s.repo.GetSubscriber(ctx, supi)
	if err != nil {
		metrics.RecordSDMRequest("am-data", "not_found")
		return nil, apierror.NotFoundf("unknown SUPI: %s", supi)
	}

	amData := &AccessAndMobilitySubscriptionData{
		SubscribedUeAMBR: &AMBR{
			Uplink:   fmt.Sprintf("%d", subData.SubscribedUeAmbrUplink),
			Downlink: fmt.Sprintf("%d", subData.SubscribedUeAmbrDownlink),
		},
	}

	if len(subData.NSSAI) > 0 {
		singles := make([]client.SNSSAI, len(subData.NSSAI))
		for i, n := range subData.NSSAI {
			singles[i] = client.SNSSAI{SST: n.SST, SD: n.SD}
		}
		amData.NSSAI = &NSSAI{
			SingleNSSAIs:        singles,
			DefaultSingleNSSAIs: singles[:1],
		}
	}

	metrics.RecordSDMRequest("am-data", "success")
	return amData, nil
}

// GetSMData retrieves Session Management subscription data for the requested
// DNN ("internet" when none is given). Unknown SUPI is "not-found"; a DNN the subscriber
// has no provisioned configuration for is also "not-found" (spec §4.2).
func (s *SDMService) GetSMData(ctx context.Context, supi string, plmnID *client.PLMNID, dnn string) (*SessionManagementSubscriptionData, error) {
	s.logger.Info("getting SM subscription data", zap.String("supi", supi), zap.String("dnn", dnn))

	subData, err := s.repo.GetSubscriber(ctx, supi)
	if err != nil {
		metrics.RecordSDMRequest("sm-data", "not_found")
		return nil, apierror.NotFoundf("unknown SUPI: %s", supi)
	}

	if dnn == "" {
		dnn = "internet"
	}

	smData, err := s.repo.GetSMSubscription(ctx, supi, dnn)
	if err != nil {
		metrics.RecordSDMRequest("sm-data", "not_found")
		return nil, apierror.NotFoundf("no session management data for SUPI %s, DNN %s", supi, dnn)
	}

	smSubData := &SessionManagementSubscriptionData{
		DnnConfigurations: make(map[string]*DnnConfiguration),
	}
	if len(subData.NSSAI) > 0 {
		smSubData.SingleNSSAI = client.SNSSAI{SST: subData.NSSAI[0].SST, SD: subData.NSSAI[0].SD}
	}

	defaultSessionType := smData.DefaultPDUSessionType
	if defaultSessionType == "" {
		defaultSessionType = "IPV4"
	}
	fiveQI := smData.Default5QI
	if fiveQI == 0 {
		fiveQI = 9
	}
	arpLevel := smData.ARPPriorityLevel
	if arpLevel == 0 {
		arpLevel = 8
	}

	smSubData.DnnConfigurations[dnn] = &DnnConfiguration{
		PduSessionTypes: &PduSessionTypes{
			DefaultSessionType:  defaultSessionType,
			AllowedSessionTypes: []string{"IPV4", "IPV6", "IPV4V6"},
		},
		SscModes: &SscModes{
			DefaultSscMode:  "SSC_MODE_1",
			AllowedSscModes: []string{"SSC_MODE_1", "SSC_MODE_2", "SSC_MODE_3"},
		},
		SessionAMBR: &AMBR{
			Uplink:   fmt.Sprintf("%d", smData.SessionAMBRUplink),
			Downlink: fmt.Sprintf("%d", smData.SessionAMBRDownlink),
		},
		Var5gQosProfile: &Var5gQosProfile{
			Var5qi:        fiveQI,
			PriorityLevel: arpLevel,
			ARP: &ARP{
				PriorityLevel: arpLevel,
				PreemptCap:    "NOT_PREEMPT",
				PreemptVuln:   "NOT_PREEMPTABLE",
			},
		},
	}

	metrics.RecordSDMRequest("sm-data", "success")
	return smSubData, nil
}

// SubscribeToDataChanges subscribes to data change notifications.
func (s *SDMService) SubscribeToDataChanges(ctx context.Context, supi string, callbackURI string) (string, error) {
	subscriptionID := fmt.Sprintf("sdm-sub-%s", supi)
	sub := &repository.SDMSubscription{
		SubscriptionID: subscriptionID,
		CallbackURI:    callbackURI,
	}
	if err := s.repo.CreateSDMSubscription(ctx, sub); err != nil {
		return "", apierror.Internal("failed to create SDM subscription", err)
	}
	s.logger.Info("created SDM subscription", zap.String("supi", supi), zap.String("subscription_id", subscriptionID))
	return subscriptionID, nil
}

// UnsubscribeFromDataChanges unsubscribes from data change notifications.
func (s *SDMService) UnsubscribeFromDataChanges(ctx context.Context, subscriptionID string) error {
	if err := s.repo.DeleteSDMSubscription(ctx, subscriptionID); err != nil {
		return apierror.NotFoundf("SDM subscription not found: %s", subscriptionID)
	}
	s.logger.Info("deleted SDM subscription", zap.String("subscription_id", subscriptionID))
	return nil
}

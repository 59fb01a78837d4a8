package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestTrigger is one of the fixed superset of policy control request
// triggers installed on every created SmPolicyDecision.
type RequestTrigger string

const (
	TriggerPLMNChange         RequestTrigger = "PLMN_CH"
	TriggerResourceModifyReq  RequestTrigger = "RES_MO_RE"
	TriggerAccessTypeChange   RequestTrigger = "AC_TY_CH"
	TriggerUEIPChange         RequestTrigger = "UE_IP_CH"
	TriggerUEMACChange        RequestTrigger = "UE_MAC_CH"
	TriggerANChangeOfCoverage RequestTrigger = "AN_CH_COR"
	TriggerUsageReport        RequestTrigger = "US_RE"
	TriggerAppStart           RequestTrigger = "APP_STA"
	TriggerAppStop            RequestTrigger = "APP_STO"
	TriggerANInfo             RequestTrigger = "AN_INFO"
	TriggerCMSessionFailure   RequestTrigger = "CM_SES_FAIL"
	TriggerPSDataOff          RequestTrigger = "PS_DA_OFF"
	TriggerDefaultQoSChange   RequestTrigger = "DEF_QOS_CH"
	TriggerSessionAMBRChange  RequestTrigger = "SE_AMBR_CH"
	TriggerQoSNotification    RequestTrigger = "QOS_NOTIF"
)

// AllTriggers is the fixed superset installed on every created decision.
var AllTriggers = []RequestTrigger{
	TriggerPLMNChange, TriggerResourceModifyReq, TriggerAccessTypeChange,
	TriggerUEIPChange, TriggerUEMACChange, TriggerANChangeOfCoverage,
	TriggerUsageReport, TriggerAppStart, TriggerAppStop, TriggerANInfo,
	TriggerCMSessionFailure, TriggerPSDataOff, TriggerDefaultQoSChange,
	TriggerSessionAMBRChange, TriggerQoSNotification,
}

// QosData is a pre-seeded QoS profile keyed by qosId.
type QosData struct {
	QosID           string `json:"qosId"`
	Var5QI          int    `json:"5qi"`
	Priority        int    `json:"priorityLevel"`
	GBR             bool   `json:"gbr"`
	MaxBitRateUL    int64  `json:"maxbrUl,omitempty"`
	MaxBitRateDL    int64  `json:"maxbrDl,omitempty"`
	GuaranteedBrUL  int64  `json:"gbrUl,omitempty"`
	GuaranteedBrDL  int64  `json:"gbrDl,omitempty"`
}

// PccRule is a policy and charging control rule referencing a QosData entry.
type PccRule struct {
	RuleID     string `json:"ruleId"`
	RefQosData string `json:"refQosData"`
	AppID      string `json:"appId,omitempty"`
	FlowDesc   string `json:"flowDescription,omitempty"`
	Precedence int    `json:"precedence"`
}

// SmPolicyDecision is the decision PCF issues per PDU session.
type SmPolicyDecision struct {
	PccRules            map[string]*PccRule        `json:"pccRules"`
	QosDecs             map[string]*QosData        `json:"qosDecs"`
	PolicyCtrlReqTriggers []RequestTrigger         `json:"policyCtrlReqTriggers"`
	RevalidationTime    time.Time                  `json:"revalidationTime"`
}

// PolicyAssociation is the live PCF-side state for one PDU session.
type PolicyAssociation struct {
	AssocID      string
	SUPI         string
	PduSessionID int
	DNN          string
	Decision     *SmPolicyDecision
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateRequest is the body of POST /npcf-smpolicycontrol/v1/sm-policies.
type CreateRequest struct {
	SUPI         string `json:"supi"`
	PduSessionID int    `json:"pduSessionId"`
	DNN          string `json:"dnn"`
	SNssai       struct {
		SST int    `json:"sst"`
		SD  string `json:"sd,omitempty"`
	} `json:"sNssai"`
}

// UpdateRequest is the body of PATCH /npcf-smpolicycontrol/v1/sm-policies/{id}.
type UpdateRequest struct {
	Triggers       []string               `json:"triggers"`
	ContextUpdates map[string]interface{} `json:"context_updates,omitempty"`
}

// Service implements PCF's SM policy catalog and live associations.
type Service struct {
	mu           sync.RWMutex
	associations map[string]*PolicyAssociation // assocId -> association
	qosCatalog   map[string]*QosData           // qosId -> catalog entry (immutable templates)
	logger       *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	s := &Service{
		associations: make(map[string]*PolicyAssociation),
		qosCatalog:   make(map[string]*QosData),
		logger:       logger,
	}
	s.seedCatalog()
	return s
}

// seedCatalog pre-seeds QosData for 5QI 5 (IMS signalling), 9 (default
// internet, best-effort), 83 (low-latency/gaming), and 2 (video, GBR).
func (s *Service) seedCatalog() {
	s.qosCatalog["qos_internet"] = &QosData{QosID: "qos_internet", Var5QI: 9, Priority: 90}
	s.qosCatalog["qos_ims"] = &QosData{QosID: "qos_ims", Var5QI: 5, Priority: 10, GBR: true, GuaranteedBrUL: 1000000, GuaranteedBrDL: 1000000}
	s.qosCatalog["qos_video"] = &QosData{QosID: "qos_video", Var5QI: 2, Priority: 40, GBR: true, GuaranteedBrDL: 10000000, GuaranteedBrUL: 1000000}
	s.qosCatalog["qos_gaming"] = &QosData{QosID: "qos_gaming", Var5QI: 83, Priority: 22}
}

// Create issues a new SmPolicyDecision for a PDU session, per spec §4.4's
// decision algorithm.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*PolicyAssociation, error) {
	if req.SUPI == "" || req.DNN == "" {
		return nil, apierror.InvalidArgumentf("supi and dnn are required")
	}

	decision := &SmPolicyDecision{
		PccRules:              make(map[string]*PccRule),
		QosDecs:                make(map[string]*QosData),
		PolicyCtrlReqTriggers:  append([]RequestTrigger{}, AllTriggers...),
		RevalidationTime:       time.Now().Add(24 * time.Hour),
	}

	// Default internet rule is always present.
	s.installRule(decision, "rule_internet", "qos_internet", 100)

	dnn := req.DNN
	switch {
	case dnn == "ims":
		s.installRule(decision, "rule_ims", "qos_ims", 10)
	case strings.Contains(dnn, "video"):
		s.installRule(decision, "rule_video_streaming", "qos_video", 20)
	case strings.Contains(dnn, "gaming"):
		s.installRule(decision, "rule_gaming", "qos_gaming", 20)
	}

	assocID := uuid.NewString()
	assoc := &PolicyAssociation{
		AssocID:      assocID,
		SUPI:         req.SUPI,
		PduSessionID: req.PduSessionID,
		DNN:          req.DNN,
		Decision:     decision,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	s.mu.Lock()
	s.associations[assocID] = assoc
	s.mu.Unlock()

	s.logger.Info("sm policy created",
		zap.String("assoc_id", assocID),
		zap.String("supi", req.SUPI),
		zap.String("dnn", req.DNN),
		zap.Int("pcc_rules", len(decision.PccRules)),
	)

	return assoc, nil
}

// installRule copies a catalog QosData entry into the decision's live
// qosDecs map and adds a PccRule referencing it — every pccRules.refQosData
// must resolve to a key of qosDecs (spec §3 invariant).
func (s *Service) installRule(decision *SmPolicyDecision, ruleID, qosID string, precedence int) {
	// qosCatalog is only written by seedCatalog in NewService, so it is read
	// without s.mu; Update calls this with s.mu already held.
	catalogEntry, ok := s.qosCatalog[qosID]
	if !ok {
		return
	}
	qosCopy := *catalogEntry
	decision.QosDecs[qosID] = &qosCopy
	decision.PccRules[ruleID] = &PccRule{
		RuleID:     ruleID,
		RefQosData: qosID,
		Precedence: precedence,
	}
}

// Get retrieves a policy association by assocId.
func (s *Service) Get(assocID string) (*PolicyAssociation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assoc, ok := s.associations[assocID]
	if !ok {
		return nil, apierror.NotFoundf("policy association not found: %s", assocID)
	}
	return assoc, nil
}

// Update applies a trigger list and context patch to an existing association,
// per spec §4.4's update algorithm.
func (s *Service) Update(ctx context.Context, assocID string, req *UpdateRequest) (*PolicyAssociation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assoc, ok := s.associations[assocID]
	if !ok {
		return nil, apierror.NotFoundf("policy association not found: %s", assocID)
	}

	for _, t := range req.Triggers {
		trigger := RequestTrigger(t)
		if !isKnownTrigger(trigger) {
			return nil, apierror.InvalidArgumentf("unknown trigger: %s", t)
		}

		switch trigger {
		case TriggerResourceModifyReq:
			s.applyResourceModify(assoc, req.ContextUpdates)
		case TriggerAppStart:
			s.applyAppStart(assoc, req.ContextUpdates)
		case TriggerAppStop:
			s.applyAppStop(assoc, req.ContextUpdates)
		case TriggerQoSNotification:
			s.applyQosNotification(assoc, req.ContextUpdates)
		}
	}

	assoc.Decision.RevalidationTime = time.Now().Add(24 * time.Hour)
	assoc.UpdatedAt = time.Now()

	s.logger.Info("sm policy updated",
		zap.String("assoc_id", assocID),
		zap.Strings("triggers", req.Triggers),
	)

	return assoc, nil
}

func isKnownTrigger(t RequestTrigger) bool {
	for _, known := range AllTriggers {
		if known == t {
			return true
		}
	}
	return false
}

// applyResourceModify installs a new GBR QoS decision carried in the patch.
func (s *Service) applyResourceModify(assoc *PolicyAssociation, patch map[string]interface{}) {
	var5qi, _ := patch["5qi"].(float64)
	if var5qi == 0 {
		return
	}
	qosID := fmt.Sprintf("qos_resmod_%d", int(var5qi))
	assoc.Decision.QosDecs[qosID] = &QosData{
		QosID:  qosID,
		Var5QI: int(var5qi),
		GBR:    true,
	}
}

// applyAppStart adds the app-keyed PCC rule and its referenced QoS. The spec's
// own worked example (§"S5") names "video_streaming_app" -> rule_video_streaming/qos_video.
func (s *Service) applyAppStart(assoc *PolicyAssociation, patch map[string]interface{}) {
	appID, _ := patch["app_id"].(string)
	if appID == "" {
		return
	}
	qosID, ruleID := qosAndRuleForApp(appID)
	s.installRule(assoc.Decision, ruleID, qosID, 20)
	assoc.Decision.PccRules[ruleID].AppID = appID
}

// applyAppStop removes the app-keyed PCC rule and, if nothing else
// references it, its QoS entry.
func (s *Service) applyAppStop(assoc *PolicyAssociation, patch map[string]interface{}) {
	appID, _ := patch["app_id"].(string)
	if appID == "" {
		return
	}
	for ruleID, rule := range assoc.Decision.PccRules {
		if rule.AppID == appID {
			delete(assoc.Decision.PccRules, ruleID)
			if !qosStillReferenced(assoc.Decision, rule.RefQosData) {
				delete(assoc.Decision.QosDecs, rule.RefQosData)
			}
		}
	}
}

func qosStillReferenced(decision *SmPolicyDecision, qosID string) bool {
	for _, rule := range decision.PccRules {
		if rule.RefQosData == qosID {
			return true
		}
	}
	return false
}

func qosAndRuleForApp(appID string) (qosID, ruleID string) {
	if strings.Contains(appID, "video") {
		return "qos_video", "rule_video_streaming"
	}
	if strings.Contains(appID, "gaming") {
		return "qos_gaming", "rule_gaming"
	}
	return "qos_internet", fmt.Sprintf("rule_%s", appID)
}

// applyQosNotification reduces the max-bit-rate of any best-effort (5QI 9)
// decision to 500 kbps up / 1 Mbps down on high congestion.
func (s *Service) applyQosNotification(assoc *PolicyAssociation, patch map[string]interface{}) {
	level, _ := patch["congestion_level"].(string)
	if level != "high" {
		return
	}
	for _, qos := range assoc.Decision.QosDecs {
		if qos.Var5QI == 9 {
			qos.MaxBitRateUL = 500000
			qos.MaxBitRateDL = 1000000
		}
	}
}

// Stats reports catalog and live-association counts.
func (s *Service) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"active_associations": len(s.associations),
		"catalog_size":        len(s.qosCatalog),
	}
}

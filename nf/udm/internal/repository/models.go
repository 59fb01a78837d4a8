package repository

import (
	"encoding/json"
	"time"
)

// SubscriberData represents complete subscriber information (TS 29.505).
type SubscriberData struct {
	SUPI     string `json:"supi"`
	SUPIType string `json:"supiType"` // "imsi" or "nai"

	PLMNIDmcc string `json:"plmnId.mcc"`
	PLMNIDmnc string `json:"plmnId.mnc"`

	SubscriberStatus string `json:"subscriberStatus,omitempty"` // ACTIVE, INACTIVE, SUSPENDED
	MSISDN           string `json:"msisdn,omitempty"`

	SubscribedUeAmbrUplink   uint64 `json:"subscribedUeAmbr.uplink,string"`
	SubscribedUeAmbrDownlink uint64 `json:"subscribedUeAmbr.downlink,string"`

	NSSAI              []SNSSAI `json:"nssai,omitempty"`
	DefaultSingleNSSAI *SNSSAI  `json:"defaultSingleNssai,omitempty"`

	DNNConfigurations map[string]*DNNConfiguration `json:"dnnConfigurations,omitempty"`

	RoamingAllowed bool     `json:"roamingAllowed"`
	RoamingAreas   []string `json:"roamingAreas,omitempty"`

	OPCKey               string `json:"opcKey,omitempty"`
	AuthenticationMethod string `json:"authenticationMethod,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SNSSAI represents Single Network Slice Selection Assistance Information.
type SNSSAI struct {
	SST int    `json:"sst"`
	SD  string `json:"sd,omitempty"`
}

// DNNConfiguration represents DNN-specific configuration.
type DNNConfiguration struct {
	PDUSessionTypes     []string `json:"pduSessionTypes"`
	SscModes            []int    `json:"sscModes"`
	IwkEpsInd           bool     `json:"iwkEpsInd,omitempty"`
	SessionAMBRUplink   uint64   `json:"sessionAmbr.uplink,string"`
	SessionAMBRDownlink uint64   `json:"sessionAmbr.downlink,string"`
	FiveQI              int      `json:"5qi"`
	StaticIPAddress     string   `json:"staticIpAddress,omitempty"`
	StaticIPv6Prefix    string   `json:"staticIpv6Prefix,omitempty"`
}

// AuthenticationSubscription represents authentication subscription data (TS 29.503).
type AuthenticationSubscription struct {
	SUPI                 string `json:"supi"`
	AuthenticationMethod string `json:"authenticationMethod"` // 5G_AKA, EAP_AKA_PRIME

	PermanentKey   string `json:"permanentKey,omitempty"` // K (hex)
	PermanentKeyID uint8  `json:"permanentKeyId,omitempty"`

	EncAlgorithm string `json:"encAlgorithm,omitempty"`
	EncOPC       string `json:"encOpc,omitempty"`
	EncOP        string `json:"encTopcKey,omitempty"`

	SQN       uint64 `json:"sequenceNumber,string"`
	SQNScheme string `json:"sqnScheme,omitempty"`

	AuthenticationManagementField string `json:"authenticationManagementField,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionManagementSubscriptionData represents SM subscription data.
type SessionManagementSubscriptionData struct {
	SUPI string `json:"supi"`
	DNN  string `json:"dnn"`

	SessionAMBRUplink   uint64 `json:"sessionAmbr.uplink,string"`
	SessionAMBRDownlink uint64 `json:"sessionAmbr.downlink,string"`

	Default5QI       int `json:"default5qi"`
	ARPPriorityLevel int `json:"arpPriorityLevel"`

	SSCModes       []int `json:"allowedSscModes"`
	DefaultSSCMode int   `json:"defaultSscMode"`

	PDUSessionTypes       []string `json:"pduSessionTypes"`
	DefaultPDUSessionType string   `json:"defaultPduSessionType"`

	StaticIPAddress  string `json:"staticIpAddress,omitempty"`
	StaticIPv6Prefix string `json:"staticIpv6Prefix,omitempty"`

	ChargingCharacteristics string `json:"chargingCharacteristics,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SDMSubscription represents a subscription for subscriber-data-change notifications.
type SDMSubscription struct {
	SubscriptionID        string    `json:"subscriptionId"`
	NFInstanceID          string    `json:"nfInstanceId"`
	CallbackURI           string    `json:"callbackReference"`
	MonitoredResourceURIs []string  `json:"monitoredResourceUris"`
	SingleNSSAI           *SNSSAI   `json:"singleNssai,omitempty"`
	DNN                   string    `json:"dnn,omitempty"`
	Expiry                time.Time `json:"expires,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
}

// PolicyData represents policy data for a subscriber.
type PolicyData struct {
	SUPI                 string          `json:"supi"`
	SubscriberPolicies   json.RawMessage `json:"subscriberPolicies,omitempty"`
	SubscribedDefaultQoS json.RawMessage `json:"subscribedDefaultQos,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// AuthEvent represents an authentication event for auditing.
type AuthEvent struct {
	SUPI           string    `json:"supi"`
	Success        bool      `json:"success"`
	AuthMethod     string    `json:"authMethod"`
	ServingNetwork string    `json:"servingNetwork"`
	Timestamp      time.Time `json:"timestamp"`
	FailureReason  string    `json:"failureReason,omitempty"`
}

// MarshalNSSAI marshals the NSSAI list to a JSON string for storage.
func (s *SubscriberData) MarshalNSSAI() (string, error) {
	if len(s.NSSAI) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(s.NSSAI)
	return string(data), err
}

// UnmarshalNSSAI restores the NSSAI list from its stored JSON string.
func (s *SubscriberData) UnmarshalNSSAI(data string) error {
	if data == "" || data == "[]" {
		s.NSSAI = []SNSSAI{}
		return nil
	}
	return json.Unmarshal([]byte(data), &s.NSSAI)
}

// MarshalDNNConfigurations marshals DNN configurations to a JSON string.
func (s *SubscriberData) MarshalDNNConfigurations() (string, error) {
	if len(s.DNNConfigurations) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(s.DNNConfigurations)
	return string(data), err
}

// UnmarshalDNNConfigurations restores DNN configurations from a JSON string.
func (s *SubscriberData) UnmarshalDNNConfigurations(data string) error {
	if data == "" || data == "{}" {
		s.DNNConfigurations = make(map[string]*DNNConfiguration)
		return nil
	}
	return json.Unmarshal([]byte(data), &s.DNNConfigurations)
}

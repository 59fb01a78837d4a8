package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	udmclickhouse "github.com/fivegcore/emulator/nf/udm/internal/clickhouse"
	"go.uber.org/zap"
)

// Repository is the UDM subscriber data store (TS 29.504/29.505 folded into
// UDM — this topology has no standalone UDR).
type Repository interface {
	CreateSubscriber(ctx context.Context, data *SubscriberData) error
	GetSubscriber(ctx context.Context, supi string) (*SubscriberData, error)
	UpdateSubscriber(ctx context.Context, supi string, data *SubscriberData) error
	DeleteSubscriber(ctx context.Context, supi string) error
	ListSubscribers(ctx context.Context, limit, offset int) ([]*SubscriberData, error)

	CreateAuthenticationSubscription(ctx context.Context, data *AuthenticationSubscription) error
	GetAuthenticationSubscription(ctx context.Context, supi string) (*AuthenticationSubscription, error)
	UpdateAuthenticationSubscription(ctx context.Context, supi string, data *AuthenticationSubscription) error
	DeleteAuthenticationSubscription(ctx context.Context, supi string) error
	IncrementSQN(ctx context.Context, supi string) (uint64, error)

	CreateSMSubscription(ctx context.Context, data *SessionManagementSubscriptionData) error
	GetSMSubscription(ctx context.Context, supi, dnn string) (*SessionManagementSubscriptionData, error)
	UpdateSMSubscription(ctx context.Context, supi, dnn string, data *SessionManagementSubscriptionData) error
	DeleteSMSubscription(ctx context.Context, supi, dnn string) error
	ListSMSubscriptions(ctx context.Context, supi string) ([]*SessionManagementSubscriptionData, error)

	CreateSDMSubscription(ctx context.Context, sub *SDMSubscription) error
	GetSDMSubscription(ctx context.Context, subscriptionID string) (*SDMSubscription, error)
	DeleteSDMSubscription(ctx context.Context, subscriptionID string) error

	CreatePolicyData(ctx context.Context, data *PolicyData) error
	GetPolicyData(ctx context.Context, supi string) (*PolicyData, error)
	UpdatePolicyData(ctx context.Context, supi string, data *PolicyData) error

	Ping(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
}

// Stats represents repository statistics.
type Stats struct {
	TotalSubscribers int `json:"total_subscribers"`
	TotalPLMNs       int `json:"total_plmns"`
}

// SeedDefaultSubscriber provisions the one subscriber the emulator's worked
// examples exercise (supi imsi-001010000000001, DNN internet, S-NSSAI
// sst=1/sd=010203). Safe to call against either repository implementation;
// a pre-existing subscriber is left untouched.
func SeedDefaultSubscriber(ctx context.Context, repo Repository) error {
	const supi = "imsi-001010000000001"
	if _, err := repo.GetSubscriber(ctx, supi); err == nil {
		return nil
	}

	if err := repo.CreateSubscriber(ctx, &SubscriberData{
		SUPI:                     supi,
		SUPIType:                 "imsi",
		PLMNIDmcc:                "001",
		PLMNIDmnc:                "01",
		SubscriberStatus:         "ACTIVE",
		SubscribedUeAmbrUplink:   1000000000,
		SubscribedUeAmbrDownlink: 2000000000,
		NSSAI:                    []SNSSAI{{SST: 1, SD: "010203"}},
		RoamingAllowed:           true,
	}); err != nil {
		return fmt.Errorf("failed to seed subscriber: %w", err)
	}

	if err := repo.CreateAuthenticationSubscription(ctx, &AuthenticationSubscription{
		SUPI:                          supi,
		AuthenticationMethod:          "5G_AKA",
		PermanentKey:                  "465b5ce8b199b49faa5f0a2ee238a6bc",
		SQN:                           0,
		AuthenticationManagementField: "8000",
	}); err != nil {
		return fmt.Errorf("failed to seed authentication subscription: %w", err)
	}

	if err := repo.CreateSMSubscription(ctx, &SessionManagementSubscriptionData{
		SUPI:                  supi,
		DNN:                   "internet",
		SessionAMBRUplink:     1000000000,
		SessionAMBRDownlink:   2000000000,
		Default5QI:            9,
		ARPPriorityLevel:      8,
		SSCModes:              []int{1, 2, 3},
		DefaultSSCMode:        1,
		PDUSessionTypes:       []string{"IPV4", "IPV6", "IPV4V6"},
		DefaultPDUSessionType: "IPV4",
	}); err != nil {
		return fmt.Errorf("failed to seed SM subscription: %w", err)
	}

	return nil
}

// ============================================================================
// MemoryRepository — the default store; no external database required
// (spec §6: "no flags are required" to run the emulator).
// ============================================================================

// MemoryRepository is an in-memory Repository, grounded on the NRF
// repository's map-plus-mutex shape.
type MemoryRepository struct {
	mu            sync.RWMutex
	subscribers   map[string]*SubscriberData
	authSubs      map[string]*AuthenticationSubscription
	smSubs        map[string]*SessionManagementSubscriptionData // key: supi+"/"+dnn
	sdmSubs       map[string]*SDMSubscription
	policyData    map[string]*PolicyData
	logger        *zap.Logger
}

// NewMemoryRepository creates a new in-memory repository.
func NewMemoryRepository(logger *zap.Logger) *MemoryRepository {
	return &MemoryRepository{
		subscribers: make(map[string]*SubscriberData),
		authSubs:    make(map[string]*AuthenticationSubscription),
		smSubs:      make(map[string]*SessionManagementSubscriptionData),
		sdmSubs:     make(map[string]*SDMSubscription),
		policyData:  make(map[string]*PolicyData),
		logger:      logger,
	}
}

func smKey(supi, dnn string) string { return supi + "/" + dnn }

func (r *MemoryRepository) CreateSubscriber(ctx context.Context, data *SubscriberData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	data.CreatedAt, data.UpdatedAt = now, now
	r.subscribers[data.SUPI] = data
	r.logger.Info("subscriber created", zap.String("supi", data.SUPI))
	return nil
}

func (r *MemoryRepository) GetSubscriber(ctx context.Context, supi string) (*SubscriberData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.subscribers[supi]
	if !ok {
		return nil, fmt.Errorf("subscriber not found: %s", supi)
	}
	cp := *data
	return &cp, nil
}

func (r *MemoryRepository) UpdateSubscriber(ctx context.Context, supi string, data *SubscriberData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data.UpdatedAt = time.Now()
	r.subscribers[supi] = data
	return nil
}

func (r *MemoryRepository) DeleteSubscriber(ctx context.Context, supi string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subscribers, supi)
	return nil
}

func (r *MemoryRepository) ListSubscribers(ctx context.Context, limit, offset int) ([]*SubscriberData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*SubscriberData, 0, len(r.subscribers))
	for _, v := range r.subscribers {
		cp := *v
		all = append(all, &cp)
	}
	if offset >= len(all) {
		return []*SubscriberData{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *MemoryRepository) CreateAuthenticationSubscription(ctx context.Context, data *AuthenticationSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	data.CreatedAt, data.UpdatedAt = now, now
	r.authSubs[data.SUPI] = data
	return nil
}

func (r *MemoryRepository) GetAuthenticationSubscription(ctx context.Context, supi string) (*AuthenticationSubscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.authSubs[supi]
	if !ok {
		return nil, fmt.Errorf("authentication subscription not found: %s", supi)
	}
	cp := *data
	return &cp, nil
}

func (r *MemoryRepository) UpdateAuthenticationSubscription(ctx context.Context, supi string, data *AuthenticationSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data.UpdatedAt = time.Now()
	r.authSubs[supi] = data
	return nil
}

func (r *MemoryRepository) DeleteAuthenticationSubscription(ctx context.Context, supi string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.authSubs, supi)
	return nil
}

func (r *MemoryRepository) IncrementSQN(ctx context.Context, supi string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.authSubs[supi]
	if !ok {
		return 0, fmt.Errorf("authentication subscription not found: %s", supi)
	}
	data.SQN++
	data.UpdatedAt = time.Now()
	return data.SQN, nil
}

func (r *MemoryRepository) CreateSMSubscription(ctx context.Context, data *SessionManagementSubscriptionData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	data.CreatedAt, data.UpdatedAt = now, now
	r.smSubs[smKey(data.SUPI, data.DNN)] = data
	return nil
}

func (r *MemoryRepository) GetSMSubscription(ctx context.Context, supi, dnn string) (*SessionManagementSubscriptionData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.smSubs[smKey(supi, dnn)]
	if !ok {
		return nil, fmt.Errorf("session management subscription not found: %s/%s", supi, dnn)
	}
	cp := *data
	return &cp, nil
}

func (r *MemoryRepository) UpdateSMSubscription(ctx context.Context, supi, dnn string, data *SessionManagementSubscriptionData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data.UpdatedAt = time.Now()
	r.smSubs[smKey(supi, dnn)] = data
	return nil
}

func (r *MemoryRepository) DeleteSMSubscription(ctx context.Context, supi, dnn string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.smSubs, smKey(supi, dnn))
	return nil
}

func (r *MemoryRepository) ListSMSubscriptions(ctx context.Context, supi string) ([]*SessionManagementSubscriptionData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*SessionManagementSubscriptionData
	for _, v := range r.smSubs {
		if v.SUPI == supi {
			cp := *v
			results = append(results, &cp)
		}
	}
	return results, nil
}

func (r *MemoryRepository) CreateSDMSubscription(ctx context.Context, sub *SDMSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub.CreatedAt = time.Now()
	r.sdmSubs[sub.SubscriptionID] = sub
	return nil
}

func (r *MemoryRepository) GetSDMSubscription(ctx context.Context, subscriptionID string) (*SDMSubscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.sdmSubs[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("SDM subscription not found: %s", subscriptionID)
	}
	cp := *sub
	return &cp, nil
}

func (r *MemoryRepository) DeleteSDMSubscription(ctx context.Context, subscriptionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sdmSubs, subscriptionID)
	return nil
}

func (r *MemoryRepository) CreatePolicyData(ctx context.Context, data *PolicyData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	data.CreatedAt, data.UpdatedAt = now, now
	r.policyData[data.SUPI] = data
	return nil
}

func (r *MemoryRepository) GetPolicyData(ctx context.Context, supi string) (*PolicyData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.policyData[supi]
	if !ok {
		return nil, fmt.Errorf("policy data not found: %s", supi)
	}
	cp := *data
	return &cp, nil
}

func (r *MemoryRepository) UpdatePolicyData(ctx context.Context, supi string, data *PolicyData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data.UpdatedAt = time.Now()
	r.policyData[supi] = data
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error { return nil }

func (r *MemoryRepository) GetStats(ctx context.Context) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plmns := make(map[string]struct{})
	for _, s := range r.subscribers {
		plmns[s.PLMNIDmcc+s.PLMNIDmnc] = struct{}{}
	}
	return &Stats{TotalSubscribers: len(r.subscribers), TotalPLMNs: len(plmns)}, nil
}

// ============================================================================
// ClickHouseRepository — used when config.ClickHouse.DSN is set, keeping the
// teacher's UDR store in its original role (TS 29.504/29.505 storage) rather
// than dropping it with the rest of the UDR scaffolding.
// ============================================================================

// ClickHouseRepository implements Repository backed by ClickHouse.
type ClickHouseRepository struct {
	client *udmclickhouse.Client
	logger *zap.Logger
}

// NewClickHouseRepository creates a new ClickHouse-backed repository.
func NewClickHouseRepository(client *udmclickhouse.Client, logger *zap.Logger) *ClickHouseRepository {
	return &ClickHouseRepository{client: client, logger: logger}
}

func (r *ClickHouseRepository) CreateSubscriber(ctx context.Context, data *SubscriberData) error {
	now := time.Now()
	data.CreatedAt, data.UpdatedAt = now, now

	nssaiJSON, err := data.MarshalNSSAI()
	if err != nil {
		return fmt.Errorf("failed to marshal NSSAI: %w", err)
	}
	dnnJSON, err := data.MarshalDNNConfigurations()
	if err != nil {
		return fmt.Errorf("failed to marshal DNN configurations: %w", err)
	}

	query := `
		INSERT INTO udm.subscribers (
			supi, supi_type, plmn_id_mcc, plmn_id_mnc,
			subscriber_status, msisdn,
			subscribed_ue_ambr_uplink, subscribed_ue_ambr_downlink,
			nssai, dnn_configurations,
			roaming_allowed, roaming_areas,
			opc_key, authentication_method,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if err := r.client.Exec(ctx, query,
		data.SUPI, data.SUPIType, data.PLMNIDmcc, data.PLMNIDmnc,
		data.SubscriberStatus, data.MSISDN,
		data.SubscribedUeAmbrUplink, data.SubscribedUeAmbrDownlink,
		nssaiJSON, dnnJSON,
		data.RoamingAllowed, data.RoamingAreas,
		data.OPCKey, data.AuthenticationMethod,
		data.CreatedAt, data.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create subscriber: %w", err)
	}

	r.logger.Info("subscriber created", zap.String("supi", data.SUPI))
	return nil
}

func (r *ClickHouseRepository) GetSubscriber(ctx context.Context, supi string) (*SubscriberData, error) {
	query := `
		SELECT
			supi, supi_type, plmn_id_mcc, plmn_id_mnc,
			subscriber_status, msisdn,
			subscribed_ue_ambr_uplink, subscribed_ue_ambr_downlink,
			nssai, dnn_configurations,
			roaming_allowed, roaming_areas,
			opc_key, authentication_method,
			created_at, updated_at
		FROM udm.subscribers
		WHERE supi = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var data SubscriberData
	var nssaiJSON, dnnJSON string
	row := r.client.QueryRow(ctx, query, supi)
	if err := row.Scan(
		&data.SUPI, &data.SUPIType, &data.PLMNIDmcc, &data.PLMNIDmnc,
		&data.SubscriberStatus, &data.MSISDN,
		&data.SubscribedUeAmbrUplink, &data.SubscribedUeAmbrDownlink,
		&nssaiJSON, &dnnJSON,
		&data.RoamingAllowed, &data.RoamingAreas,
		&data.OPCKey, &data.AuthenticationMethod,
		&data.CreatedAt, &data.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("subscriber not found: %w", err)
	}
	if err := data.UnmarshalNSSAI(nssaiJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal NSSAI: %w", err)
	}
	if err := data.UnmarshalDNNConfigurations(dnnJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DNN configurations: %w", err)
	}
	return &data, nil
}

func (r *ClickHouseRepository) UpdateSubscriber(ctx context.Context, supi string, data *SubscriberData) error {
	data.UpdatedAt = time.Now()
	// ReplacingMergeTree: a fresh insert with the same key supersedes the prior row.
	return r.CreateSubscriber(ctx, data)
}

func (r *ClickHouseRepository) DeleteSubscriber(ctx context.Context, supi string) error {
	query := `ALTER TABLE udm.subscribers DELETE WHERE supi = ?`
	if err := r.client.Exec(ctx, query, supi); err != nil {
		return fmt.Errorf("failed to delete subscriber: %w", err)
	}
	return nil
}

func (r *ClickHouseRepository) ListSubscribers(ctx context.Context, limit, offset int) ([]*SubscriberData, error) {
	query := `
		SELECT
			supi, supi_type, plmn_id_mcc, plmn_id_mnc,
			subscriber_status, msisdn,
			subscribed_ue_ambr_uplink, subscribed_ue_ambr_downlink,
			nssai, dnn_configurations,
			roaming_allowed, roaming_areas,
			opc_key, authentication_method,
			created_at, updated_at
		FROM udm.subscribers
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.client.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []*SubscriberData
	for rows.Next() {
		var data SubscriberData
		var nssaiJSON, dnnJSON string
		if err := rows.Scan(
			&data.SUPI, &data.SUPIType, &data.PLMNIDmcc, &data.PLMNIDmnc,
			&data.SubscriberStatus, &data.MSISDN,
			&data.SubscribedUeAmbrUplink, &data.SubscribedUeAmbrDownlink,
			&nssaiJSON, &dnnJSON,
			&data.RoamingAllowed, &data.RoamingAreas,
			&data.OPCKey, &data.AuthenticationMethod,
			&data.CreatedAt, &data.UpdatedAt,
		); err != nil {
			r.logger.Error("failed to scan subscriber", zap.Error(err))
			continue
		}
		data.UnmarshalNSSAI(nssaiJSON)
		data.UnmarshalDNNConfigurations(dnnJSON)
		subscribers = append(subscribers, &data)
	}
	return subscribers, nil
}

func (r *ClickHouseRepository) CreateAuthenticationSubscription(ctx context.Context, data *AuthenticationSubscription) error {
	now := time.Now()
	data.CreatedAt, data.UpdatedAt = now, now
	query := `
		INSERT INTO udm.authentication_subscription (
			supi, authentication_method,
			permanent_key, permanent_key_id,
			enc_algorithm, enc_opc, enc_op,
			sqn, sqn_scheme,
			authentication_management_field,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if err := r.client.Exec(ctx, query,
		data.SUPI, data.AuthenticationMethod,
		data.PermanentKey, data.PermanentKeyID,
		data.EncAlgorithm, data.EncOPC, data.EncOP,
		data.SQN, data.SQNScheme,
		data.AuthenticationManagementField,
		data.CreatedAt, data.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create authentication subscription: %w", err)
	}
	return nil
}

func (r *ClickHouseRepository) GetAuthenticationSubscription(ctx context.Context, supi string) (*AuthenticationSubscription, error) {
	query := `
		SELECT
			supi, authentication_method,
			permanent_key, permanent_key_id,
			enc_algorithm, enc_opc, enc_op,
			sqn, sqn_scheme,
			authentication_management_field,
			created_at, updated_at
		FROM udm.authentication_subscription
		WHERE supi = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var data AuthenticationSubscription
	row := r.client.QueryRow(ctx, query, supi)
	if err := row.Scan(
		&data.SUPI, &data.AuthenticationMethod,
		&data.PermanentKey, &data.PermanentKeyID,
		&data.EncAlgorithm, &data.EncOPC, &data.EncOP,
		&data.SQN, &data.SQNScheme,
		&data.AuthenticationManagementField,
		&data.CreatedAt, &data.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("authentication subscription not found: %w", err)
	}
	return &data, nil
}

func (r *ClickHouseRepository) UpdateAuthenticationSubscription(ctx context.Context, supi string, data *AuthenticationSubscription) error {
	data.UpdatedAt = time.Now()
	return r.CreateAuthenticationSubscription(ctx, data)
}

func (r *ClickHouseRepository) DeleteAuthenticationSubscription(ctx context.Context, supi string) error {
	query := `ALTER TABLE udm.authentication_subscription DELETE WHERE supi = ?`
	if err := r.client.Exec(ctx, query, supi); err != nil {
		return fmt.Errorf("failed to delete authentication subscription: %w", err)
	}
	return nil
}

func (r *ClickHouseRepository) IncrementSQN(ctx context.Context, supi string) (uint64, error) {
	authSub, err := r.GetAuthenticationSubscription(ctx, supi)
	if err != nil {
		return 0, err
	}
	authSub.SQN++
	if err := r.UpdateAuthenticationSubscription(ctx, supi, authSub); err != nil {
		return 0, err
	}
	return authSub.SQN, nil
}

func (r *ClickHouseRepository) CreateSMSubscription(ctx context.Context, data *SessionManagementSubscriptionData) error {
	now := time.Now()
	data.CreatedAt, data.UpdatedAt = now, now
	query := `
		INSERT INTO udm.sm_subscriptions (
			supi, dnn,
			session_ambr_uplink, session_ambr_downlink,
			default_5qi, arp_priority_level,
			ssc_modes, default_ssc_mode,
			pdu_session_types, default_pdu_session_type,
			static_ip_address, static_ipv6_prefix,
			charging_characteristics,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return r.client.Exec(ctx, query,
		data.SUPI, data.DNN,
		data.SessionAMBRUplink, data.SessionAMBRDownlink,
		data.Default5QI, data.ARPPriorityLevel,
		data.SSCModes, data.DefaultSSCMode,
		data.PDUSessionTypes, data.DefaultPDUSessionType,
		data.StaticIPAddress, data.StaticIPv6Prefix,
		data.ChargingCharacteristics,
		data.CreatedAt, data.UpdatedAt,
	)
}

func (r *ClickHouseRepository) GetSMSubscription(ctx context.Context, supi, dnn string) (*SessionManagementSubscriptionData, error) {
	query := `
		SELECT
			supi, dnn,
			session_ambr_uplink, session_ambr_downlink,
			default_5qi, arp_priority_level,
			ssc_modes, default_ssc_mode,
			pdu_session_types, default_pdu_session_type,
			static_ip_address, static_ipv6_prefix,
			charging_characteristics,
			created_at, updated_at
		FROM udm.sm_subscriptions
		WHERE supi = ? AND dnn = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var data SessionManagementSubscriptionData
	row := r.client.QueryRow(ctx, query, supi, dnn)
	if err := row.Scan(
		&data.SUPI, &data.DNN,
		&data.SessionAMBRUplink, &data.SessionAMBRDownlink,
		&data.Default5QI, &data.ARPPriorityLevel,
		&data.SSCModes, &data.DefaultSSCMode,
		&data.PDUSessionTypes, &data.DefaultPDUSessionType,
		&data.StaticIPAddress, &data.StaticIPv6Prefix,
		&data.ChargingCharacteristics,
		&data.CreatedAt, &data.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("session management subscription not found: %w", err)
	}
	return &data, nil
}

func (r *ClickHouseRepository) UpdateSMSubscription(ctx context.Context, supi, dnn string, data *SessionManagementSubscriptionData) error {
	data.UpdatedAt = time.Now()
	return r.CreateSMSubscription(ctx, data)
}

func (r *ClickHouseRepository) DeleteSMSubscription(ctx context.Context, supi, dnn string) error {
	query := `ALTER TABLE udm.sm_subscriptions DELETE WHERE supi = ? AND dnn = ?`
	return r.client.Exec(ctx, query, supi, dnn)
}

func (r *ClickHouseRepository) ListSMSubscriptions(ctx context.Context, supi string) ([]*SessionManagementSubscriptionData, error) {
	query := `
		SELECT
			supi, dnn,
			session_ambr_uplink, session_ambr_downlink,
			default_5qi, arp_priority_level,
			ssc_modes, default_ssc_mode,
			pdu_session_types, default_pdu_session_type,
			static_ip_address, static_ipv6_prefix,
			charging_characteristics,
			created_at, updated_at
		FROM udm.sm_subscriptions
		WHERE supi = ?
		ORDER BY updated_at DESC
	`
	rows, err := r.client.Query(ctx, query, supi)
	if err != nil {
		return nil, fmt.Errorf("failed to list SM subscriptions: %w", err)
	}
	defer rows.Close()

	var results []*SessionManagementSubscriptionData
	for rows.Next() {
		var data SessionManagementSubscriptionData
		if err := rows.Scan(
			&data.SUPI, &data.DNN,
			&data.SessionAMBRUplink, &data.SessionAMBRDownlink,
			&data.Default5QI, &data.ARPPriorityLevel,
			&data.SSCModes, &data.DefaultSSCMode,
			&data.PDUSessionTypes, &data.DefaultPDUSessionType,
			&data.StaticIPAddress, &data.StaticIPv6Prefix,
			&data.ChargingCharacteristics,
			&data.CreatedAt, &data.UpdatedAt,
		); err != nil {
			r.logger.Error("failed to scan SM subscription", zap.Error(err))
			continue
		}
		results = append(results, &data)
	}
	return results, nil
}

func (r *ClickHouseRepository) CreateSDMSubscription(ctx context.Context, sub *SDMSubscription) error {
	sub.CreatedAt = time.Now()
	query := `
		INSERT INTO udm.sdm_subscriptions (
			subscription_id, nf_instance_id, callback_uri,
			monitored_resource_uris, dnn, expires, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	return r.client.Exec(ctx, query,
		sub.SubscriptionID, sub.NFInstanceID, sub.CallbackURI,
		sub.MonitoredResourceURIs, sub.DNN, sub.Expiry, sub.CreatedAt,
	)
}

func (r *ClickHouseRepository) GetSDMSubscription(ctx context.Context, subscriptionID string) (*SDMSubscription, error) {
	query := `
		SELECT subscription_id, nf_instance_id, callback_uri, monitored_resource_uris, dnn, expires, created_at
		FROM udm.sdm_subscriptions
		WHERE subscription_id = ?
		LIMIT 1
	`
	var sub SDMSubscription
	row := r.client.QueryRow(ctx, query, subscriptionID)
	if err := row.Scan(
		&sub.SubscriptionID, &sub.NFInstanceID, &sub.CallbackURI,
		&sub.MonitoredResourceURIs, &sub.DNN, &sub.Expiry, &sub.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("SDM subscription not found: %w", err)
	}
	return &sub, nil
}

func (r *ClickHouseRepository) DeleteSDMSubscription(ctx context.Context, subscriptionID string) error {
	query := `ALTER TABLE udm.sdm_subscriptions DELETE WHERE subscription_id = ?`
	return r.client.Exec(ctx, query, subscriptionID)
}

func (r *ClickHouseRepository) CreatePolicyData(ctx context.Context, data *PolicyData) error {
	now := time.Now()
	data.CreatedAt, data.UpdatedAt = now, now
	query := `
		INSERT INTO udm.policy_data (
			supi, subscriber_policies, subscribed_default_qos, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?)
	`
	return r.client.Exec(ctx, query,
		data.SUPI, string(data.SubscriberPolicies), string(data.SubscribedDefaultQoS),
		data.CreatedAt, data.UpdatedAt,
	)
}

func (r *ClickHouseRepository) GetPolicyData(ctx context.Context, supi string) (*PolicyData, error) {
	query := `
		SELECT supi, subscriber_policies, subscribed_default_qos, created_at, updated_at
		FROM udm.policy_data
		WHERE supi = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var data PolicyData
	var policies, qos string
	row := r.client.QueryRow(ctx, query, supi)
	if err := row.Scan(&data.SUPI, &policies, &qos, &data.CreatedAt, &data.UpdatedAt); err != nil {
		return nil, fmt.Errorf("policy data not found: %w", err)
	}
	data.SubscriberPolicies = []byte(policies)
	data.SubscribedDefaultQoS = []byte(qos)
	return &data, nil
}

func (r *ClickHouseRepository) UpdatePolicyData(ctx context.Context, supi string, data *PolicyData) error {
	data.UpdatedAt = time.Now()
	return r.CreatePolicyData(ctx, data)
}

func (r *ClickHouseRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func (r *ClickHouseRepository) GetStats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT COUNT(*) as total_subscribers, COUNT(DISTINCT plmn_id_mcc) as total_plmns
		FROM udm.subscribers
	`
	var stats Stats
	row := r.client.QueryRow(ctx, query)
	if err := row.Scan(&stats.TotalSubscribers, &stats.TotalPLMNs); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}

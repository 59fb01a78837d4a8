package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/metrics"
	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/nrf/internal/repository"
	"go.uber.org/zap"
)

// requireToken enforces the bearer-token requirement on management and
// discovery endpoints (spec §4.1 / §6). Token issuance itself is exempt.
func (s *NRFServer) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			respond.Error(w, s.logger, apierror.Unauthenticatedf("missing bearer token"))
			return
		}
		raw := strings.TrimPrefix(header, prefix)
		if _, err := s.tokens.Verify(raw); err != nil {
			respond.Error(w, s.logger, apierror.Unauthenticatedf("invalid or expired token: %v", err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleIssueToken handles POST /oauth2/token (client_credentials grant).
func (s *NRFServer) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("malformed form body"))
		return
	}

	grantType := r.FormValue("grant_type")
	if grantType == "" {
		// Also accept a JSON body, since most callers here are other Go NFs.
		var body struct {
			GrantType string `json:"grant_type"`
			Scope     string `json:"scope"`
			Sub       string `json:"sub"`
			TTL       int    `json:"expires_in"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		grantType = body.GrantType
		if grantType == "" {
			grantType = "client_credentials"
		}
		ttl := time.Duration(body.TTL) * time.Second
		if ttl <= 0 {
			ttl = time.Hour
		}
		token, err := s.tokens.Issue(body.Sub, body.Scope, ttl)
		if err != nil {
			respond.Error(w, s.logger, apierror.Internal("failed to issue token", err))
			return
		}
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   int(ttl.Seconds()),
			"scope":        body.Scope,
		})
		return
	}

	scope := r.FormValue("scope")
	sub := r.FormValue("client_id")
	expiresInStr := r.FormValue("expires_in")
	ttl := time.Hour
	if expiresInStr != "" {
		if secs, err := strconv.Atoi(expiresInStr); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}

	token, err := s.tokens.Issue(sub, scope, ttl)
	if err != nil {
		respond.Error(w, s.logger, apierror.Internal("failed to issue token", err))
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(ttl.Seconds()),
		"scope":        scope,
	})
}

// handleNFRegister handles NF registration (PUT /nf-instances/{nfInstanceId}).
func (s *NRFServer) handleNFRegister(w http.ResponseWriter, r *http.Request) {
	nfInstanceID := chi.URLParam(r, "nfInstanceId")

	var profile repository.NFProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	if profile.NFInstanceID != "" && profile.NFInstanceID != nfInstanceID {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("mismatch: body nfInstanceId %q does not match URL id %q", profile.NFInstanceID, nfInstanceID))
		return
	}
	profile.NFInstanceID = nfInstanceID

	if err := s.repository.Register(r.Context(), &profile); err != nil {
		respond.Error(w, s.logger, apierror.Internal("registration failed", err))
		metrics.RecordNFRegistration("unknown", "failed")
		return
	}

	metrics.RecordNFRegistration(string(profile.NFType), "success")
	stats, _ := s.repository.GetStats(r.Context())
	metrics.SetRegisteredNFs(string(profile.NFType), stats.NFsByType[string(profile.NFType)])

	respond.JSON(w, http.StatusCreated, &profile)

	s.logger.Info("NF registered",
		zap.String("nf_instance_id", nfInstanceID),
		zap.String("nf_type", string(profile.NFType)),
	)
}

// handleNFUpdate handles a profile patch (PATCH /nf-instances/{nfInstanceId}).
// Spec §4.1: Patch supports replace of nfStatus and load only.
func (s *NRFServer) handleNFUpdate(w http.ResponseWriter, r *http.Request) {
	nfInstanceID := chi.URLParam(r, "nfInstanceId")

	var patch struct {
		NFStatus *repository.NFStatus `json:"nfStatus"`
		Load     *int                 `json:"load"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	existing, err := s.repository.Get(r.Context(), nfInstanceID)
	if err != nil {
		respond.Error(w, s.logger, apierror.NotFoundf("NF instance not found: %s", nfInstanceID))
		return
	}

	if patch.NFStatus != nil {
		existing.NFStatus = *patch.NFStatus
	}
	if patch.Load != nil {
		existing.Load = *patch.Load
	}

	if err := s.repository.Update(r.Context(), nfInstanceID, existing); err != nil {
		respond.Error(w, s.logger, apierror.NotFoundf("update failed: %v", err))
		return
	}

	respond.JSON(w, http.StatusOK, existing)

	s.logger.Info("NF profile updated", zap.String("nf_instance_id", nfInstanceID))
}

// handleNFDeregister handles NF deregistration (DELETE /nf-instances/{nfInstanceId}).
func (s *NRFServer) handleNFDeregister(w http.ResponseWriter, r *http.Request) {
	nfInstanceID := chi.URLParam(r, "nfInstanceId")

	if err := s.repository.Deregister(r.Context(), nfInstanceID); err != nil {
		respond.Error(w, s.logger, apierror.NotFoundf("deregistration failed: %v", err))
		metrics.RecordNFDeregistration("failed")
		return
	}

	metrics.RecordNFDeregistration("success")
	stats, _ := s.repository.GetStats(r.Context())
	for nfType, count := range stats.NFsByType {
		metrics.SetRegisteredNFs(nfType, count)
	}

	w.WriteHeader(http.StatusNoContent)

	s.logger.Info("NF deregistered", zap.String("nf_instance_id", nfInstanceID))
}

// handleNFGet handles getting an NF profile (GET /nf-instances/{nfInstanceId}).
func (s *NRFServer) handleNFGet(w http.ResponseWriter, r *http.Request) {
	nfInstanceID := chi.URLParam(r, "nfInstanceId")

	profile, err := s.repository.Get(r.Context(), nfInstanceID)
	if err != nil {
		respond.Error(w, s.logger, apierror.NotFoundf("NF not found: %s", nfInstanceID))
		return
	}

	respond.JSON(w, http.StatusOK, profile)
}

// handleNFList handles listing all NF profiles (GET /nf-instances).
func (s *NRFServer) handleNFList(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.repository.GetAll(r.Context())
	if err != nil {
		respond.Error(w, s.logger, apierror.Internal("failed to get profiles", err))
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"nfInstances": profiles,
		"totalCount":  len(profiles),
	})
}

// handleHeartbeat handles NF heartbeat (PATCH /nf-instances/{nfInstanceId}/heartbeat).
func (s *NRFServer) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	nfInstanceID := chi.URLParam(r, "nfInstanceId")

	profile, _ := s.repository.Get(r.Context(), nfInstanceID)

	if err := s.repository.UpdateHeartbeat(r.Context(), nfInstanceID); err != nil {
		respond.Error(w, s.logger, apierror.NotFoundf("heartbeat failed: %v", err))
		return
	}

	if profile != nil {
		metrics.RecordHeartbeat(string(profile.NFType))
	}

	w.WriteHeader(http.StatusNoContent)

	s.logger.Debug("Heartbeat received", zap.String("nf_instance_id", nfInstanceID))
}

func (s *NRFServer) parseDiscoveryQuery(r *http.Request) *repository.DiscoveryQuery {
	query := &repository.DiscoveryQuery{}
	q := r.URL.Query()

	if nfType := q.Get("target-nf-type"); nfType != "" {
		query.NFType = repository.NFType(nfType)
	}
	if requesterType := q.Get("requester-nf-type"); requesterType != "" {
		query.RequesterNFType = repository.NFType(requesterType)
	}
	if nfID := q.Get("target-nf-instance-id"); nfID != "" {
		query.TargetNFID = nfID
	}
	if requesterFQDN := q.Get("requester-nf-fqdn"); requesterFQDN != "" {
		query.RequesterFQDN = requesterFQDN
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			query.Limit = limit
		}
	}
	if serviceNames := q["service-names"]; len(serviceNames) > 0 {
		query.ServiceNames = serviceNames
	}
	if mcc := q.Get("requester-plmn-mcc"); mcc != "" {
		if mnc := q.Get("requester-plmn-mnc"); mnc != "" {
			query.PLMNID = &repository.PLMNID{MCC: mcc, MNC: mnc}
		}
	}
	if amfRegionID := q.Get("target-amf-region-id"); amfRegionID != "" {
		query.AMFRegionID = amfRegionID
	}
	if amfSetID := q.Get("target-amf-set-id"); amfSetID != "" {
		query.AMFSetID = amfSetID
	}
	if dnn := q.Get("dnn"); dnn != "" {
		query.DNN = dnn
	}
	if tac := q.Get("tai-tac"); tac != "" {
		if mcc := q.Get("tai-plmn-mcc"); mcc != "" {
			if mnc := q.Get("tai-plmn-mnc"); mnc != "" {
				query.TAI = &repository.TAI{PLMNID: repository.PLMNID{MCC: mcc, MNC: mnc}, TAC: tac}
			}
		}
	}

	return query
}

// handleNFDiscover handles NF discovery (GET /nnrf-disc/v1/nf-instances).
func (s *NRFServer) handleNFDiscover(w http.ResponseWriter, r *http.Request) {
	query := s.parseDiscoveryQuery(r)

	profiles, err := s.repository.Discover(r.Context(), query)
	if err != nil {
		respond.Error(w, s.logger, apierror.Internal("discovery failed", err))
		metrics.RecordDiscoveryRequest(string(query.NFType), "failed")
		return
	}

	metrics.RecordDiscoveryRequest(string(query.NFType), "success")

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"validityPeriod": 3600,
		"nfInstances":    profiles,
		"searchId":       uuid.New().String(),
	})

	s.logger.Info("NF discovery",
		zap.String("target_nf_type", string(query.NFType)),
		zap.Int("results_count", len(profiles)),
	)
}

// handleLegacyRegister routes the legacy /register POST to the modern store
// (design notes §9: legacy and SBI endpoints coexist).
func (s *NRFServer) handleLegacyRegister(w http.ResponseWriter, r *http.Request) {
	var profile repository.NFProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}
	if profile.NFInstanceID == "" {
		profile.NFInstanceID = uuid.New().String()
	}

	if err := s.repository.Register(r.Context(), &profile); err != nil {
		respond.Error(w, s.logger, apierror.Internal("registration failed", err))
		return
	}

	respond.JSON(w, http.StatusCreated, &profile)
}

// handleLegacyDiscover routes the legacy /discover/{nfType} GET to the modern store.
func (s *NRFServer) handleLegacyDiscover(w http.ResponseWriter, r *http.Request) {
	nfType := chi.URLParam(r, "nfType")
	query := s.parseDiscoveryQuery(r)
	query.NFType = repository.NFType(nfType)

	profiles, err := s.repository.Discover(r.Context(), query)
	if err != nil {
		respond.Error(w, s.logger, apierror.Internal("discovery failed", err))
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"nfInstances": profiles,
	})
}

// handleSubscribe handles subscription creation (POST /subscriptions).
func (s *NRFServer) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var subscription repository.Subscription
	if err := json.NewDecoder(r.Body).Decode(&subscription); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	if subscription.SubscriptionID == "" {
		subscription.SubscriptionID = uuid.New().String()
	}
	if subscription.ValidityTime.IsZero() {
		subscription.ValidityTime = time.Now().Add(24 * time.Hour)
	}

	if err := s.repository.Subscribe(r.Context(), &subscription); err != nil {
		respond.Error(w, s.logger, apierror.Internal("subscription failed", err))
		return
	}

	respond.JSON(w, http.StatusCreated, &subscription)

	s.logger.Info("Subscription created",
		zap.String("subscription_id", subscription.SubscriptionID),
		zap.String("callback_uri", subscription.CallbackURI),
	)
}

// handleUnsubscribe handles subscription deletion (DELETE /subscriptions/{subscriptionId}).
func (s *NRFServer) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	subscriptionID := chi.URLParam(r, "subscriptionId")

	if err := s.repository.Unsubscribe(r.Context(), subscriptionID); err != nil {
		respond.Error(w, s.logger, apierror.NotFoundf("unsubscribe failed: %v", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)

	s.logger.Info("Subscription removed", zap.String("subscription_id", subscriptionID))
}

// handleGetSubscription handles getting a subscription (GET /subscriptions/{subscriptionId}).
func (s *NRFServer) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	subscriptionID := chi.URLParam(r, "subscriptionId")

	subscription, err := s.repository.GetSubscription(r.Context(), subscriptionID)
	if err != nil {
		respond.Error(w, s.logger, apierror.NotFoundf("subscription not found: %s", subscriptionID))
		return
	}

	respond.JSON(w, http.StatusOK, subscription)
}

// handleStatus handles GET /status.
func (s *NRFServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.repository.GetStats(r.Context())
	if err != nil {
		respond.Error(w, s.logger, apierror.Internal("failed to get stats", err))
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"nrf_instance_id": s.config.NF.InstanceID,
		"nrf_name":        s.config.NF.Name,
		"version":         "1.0.0",
		"stats":           stats,
	})
}

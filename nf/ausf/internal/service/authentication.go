package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fivegcore/emulator/common/akahash"
	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/metrics"
	"github.com/fivegcore/emulator/nf/ausf/internal/client"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status values an AuthenticationContext can carry. Once terminal
// (Success/Failure) the status never changes (spec invariant).
const (
	StatusOngoing = "ONGOING"
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// AuthenticationService drives 5G-AKA as a two-step procedure per UE
// authentication attempt.
type AuthenticationService struct {
	udmClient *client.UDMClient
	contexts  map[string]*AuthenticationContext // authCtxId -> context
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewAuthenticationService creates a new authentication service
func NewAuthenticationService(udmClient *client.UDMClient, logger *zap.Logger) *AuthenticationService {
	return &AuthenticationService{
		udmClient: udmClient,
		contexts:  make(map[string]*AuthenticationContext),
		logger:    logger,
	}
}

// AuthenticationContext represents an ongoing authentication session
type AuthenticationContext struct {
	AuthCtxID          string
	SUPI               string
	ServingNetworkName string
	AuthType           string // "5G_AKA"
	Status             string // ONGOING | SUCCESS | FAILURE
	RAND               string
	AUTN               string
	HXRES              string
	KAUSF              string
	KSEAF              string // non-empty only once Status is SUCCESS
	CreatedAt          time.Time
	ExpiresAt          time.Time
}

// UEAuthenticationRequest represents authentication initiation request from AMF
type UEAuthenticationRequest struct {
	SUPI                  string `json:"supiOrSuci"`
	ServingNetworkName    string `json:"servingNetworkName"`
	ResynchronizationInfo *struct {
		RAND string `json:"rand"`
		AUTS string `json:"auts"`
	} `json:"resynchronizationInfo,omitempty"`
}

// UEAuthenticationResponse represents authentication response to AMF
type UEAuthenticationResponse struct {
	AuthType             string                 `json:"authType"`
	AuthenticationVector *Var5gAuthData         `json:"authenticationVector,omitempty"`
	Links                map[string]interface{} `json:"_links"`
}

// Var5gAuthData represents 5G authentication data handed back to the AMF
type Var5gAuthData struct {
	RAND  string `json:"rand"`
	AUTN  string `json:"autn"`
	HXRES string `json:"hxresStar,omitempty"`
}

// ConfirmationData represents authentication confirmation from AMF
type ConfirmationData struct {
	ResStar string `json:"resStar"` // RES* from UE
}

// ConfirmationDataResponse represents authentication confirmation response
type ConfirmationDataResponse struct {
	AuthResult string `json:"authResult"` // "AUTHENTICATION_SUCCESS" or "AUTHENTICATION_FAILURE"
	SUPI       string `json:"supi,omitempty"`
	KSEAF      string `json:"kseaf,omitempty"`
}

// UEAuthenticationCtx initiates authentication for a UE. If the SUPI is
// actually a concealed SUCI it is de-concealed first; if UDM cannot be
// reached, a local vector is synthesized by the same hash construction
// (test-mode fallback — spec §4.3).
func (s *AuthenticationService) UEAuthenticationCtx(ctx context.Context, req *UEAuthenticationRequest) (*UEAuthenticationResponse, error) {
	start := time.Now()
	supi := akahash.DeconcealSUCI(req.SUPI)

	s.logger.Info("initiating UE authentication",
		zap.String("supi", supi),
		zap.String("serving_network", req.ServingNetworkName),
	)

	authInfo := &client.AuthenticationInfo{
		SUPI:                  supi,
		ServingNetworkName:    req.ServingNetworkName,
		ResynchronizationInfo: req.ResynchronizationInfo,
	}

	authResult, err := s.udmClient.GenerateAuthData(ctx, authInfo)
	if err != nil {
		s.logger.Warn("UDM unreachable, synthesizing local vector", zap.String("supi", supi), zap.Error(err))
		authResult, err = s.synthesizeAuthData(supi, req.ServingNetworkName)
		if err != nil {
			metrics.RecordAKAVectorGeneration("failure")
			metrics.RecordAuthenticationAttempt("5G_AKA", "failure")
			metrics.RecordAuthenticationDuration("5G_AKA", time.Since(start).Seconds())
			return nil, apierror.Internal("failed to synthesize authentication vector", err)
		}
		metrics.RecordAKAVectorGeneration("synthesized")
	} else {
		metrics.RecordAKAVectorGeneration("udm")
	}

	if authResult.AuthenticationVector == nil {
		metrics.RecordAuthenticationAttempt("5G_AKA", "failure")
		metrics.RecordAuthenticationDuration("5G_AKA", time.Since(start).Seconds())
		return nil, apierror.Internal("no authentication vector available", nil)
	}

	authCtxID := uuid.NewString()

	authCtx := &AuthenticationContext{
		AuthCtxID:          authCtxID,
		SUPI:               supi,
		ServingNetworkName: req.ServingNetworkName,
		AuthType:           authResult.AuthType,
		Status:             StatusOngoing,
		RAND:               authResult.AuthenticationVector.RAND,
		AUTN:               authResult.AuthenticationVector.AUTN,
		HXRES:              authResult.AuthenticationVector.HXRES,
		KAUSF:              authResult.AuthenticationVector.KAUSF,
		CreatedAt:          time.Now(),
		ExpiresAt:          time.Now().Add(5 * time.Minute),
	}

	s.mu.Lock()
	s.contexts[authCtxID] = authCtx
	activeContexts := len(s.contexts)
	s.mu.Unlock()

	metrics.SetActiveAuthContexts(activeContexts)
	metrics.RecordAuthenticationAttempt(authResult.AuthType, "ongoing")
	metrics.RecordAuthenticationDuration(authResult.AuthType, time.Since(start).Seconds())

	s.logger.Info("authentication context created",
		zap.String("supi", supi),
		zap.String("auth_ctx_id", authCtxID),
		zap.String("auth_type", authResult.AuthType),
	)

	return &UEAuthenticationResponse{
		AuthType: authResult.AuthType,
		AuthenticationVector: &Var5gAuthData{
			RAND:  authResult.AuthenticationVector.RAND,
			AUTN:  authResult.AuthenticationVector.AUTN,
			HXRES: authResult.AuthenticationVector.HXRES,
		},
		Links: map[string]interface{}{
			"5g-aka": map[string]string{
				"href": fmt.Sprintf("/nausf-auth/v1/ue-authentications/%s/5g-aka-confirmation", authCtxID),
			},
		},
	}, nil
}

// synthesizeAuthData builds a vector the same way akahash does, using the
// SUPI itself as the hash key since AUSF has no access to the subscriber's
// permanent key — this is the test-mode fallback spec §4.3 describes, not a
// real cryptographic fallback.
func (s *AuthenticationService) synthesizeAuthData(supi, servingNetworkName string) (*client.AuthenticationInfoResult, error) {
	vec, err := akahash.Derive([]byte(supi), servingNetworkName)
	if err != nil {
		return nil, err
	}
	return &client.AuthenticationInfoResult{
		AuthType: "5G_AKA",
		AuthenticationVector: &client.AuthenticationVector{
			RAND:  vec.RAND,
			AUTN:  vec.AUTN,
			HXRES: akahash.DeriveHXRES(vec.XRES),
			KAUSF: vec.KAUSF,
		},
	}, nil
}

// Confirm5gAkaAuth confirms 5G-AKA authentication. Comparison is against the
// stored HXRES*; once terminal, status never changes.
func (s *AuthenticationService) Confirm5gAkaAuth(ctx context.Context, authCtxID string, confirmData *ConfirmationData) (*ConfirmationDataResponse, error) {
	s.mu.Lock()
	authCtx, exists := s.contexts[authCtxID]
	if !exists {
		s.mu.Unlock()
		return nil, apierror.NotFoundf("authentication context not found: %s", authCtxID)
	}

	if authCtx.Status != StatusOngoing {
		resp := confirmationResponseFor(authCtx)
		s.mu.Unlock()
		return resp, nil
	}

	if time.Now().After(authCtx.ExpiresAt) {
		authCtx.Status = StatusFailure
		s.mu.Unlock()
		return &ConfirmationDataResponse{AuthResult: "AUTHENTICATION_FAILURE"}, nil
	}

	success := confirmData.ResStar == authCtx.HXRES
	if success {
		authCtx.Status = StatusSuccess
		authCtx.KSEAF = akahash.DeriveKSEAF(authCtx.KAUSF, authCtx.ServingNetworkName)
	} else {
		authCtx.Status = StatusFailure
	}
	response := confirmationResponseFor(authCtx)
	s.mu.Unlock()

	if success {
		metrics.RecordAuthenticationAttempt(authCtx.AuthType, "success")
		s.logger.Info("authentication successful", zap.String("supi", authCtx.SUPI), zap.String("auth_ctx_id", authCtxID))

		authEvent := map[string]interface{}{
			"nfInstanceId":       "ausf-1",
			"success":            true,
			"timeStamp":          time.Now().Format(time.RFC3339),
			"authType":           authCtx.AuthType,
			"servingNetworkName": authCtx.ServingNetworkName,
		}
		if err := s.udmClient.ConfirmAuth(ctx, authCtx.SUPI, authEvent); err != nil {
			s.logger.Warn("failed to confirm auth with UDM", zap.Error(err))
		}
	} else {
		metrics.RecordAuthenticationAttempt(authCtx.AuthType, "failure")
		s.logger.Warn("authentication failed", zap.String("supi", authCtx.SUPI), zap.String("auth_ctx_id", authCtxID))
	}

	return response, nil
}

// confirmationResponseFor builds the wire response for a context's current
// terminal (or re-queried) status. Invariant: SUCCESS always carries a
// non-null KSEAF.
func confirmationResponseFor(authCtx *AuthenticationContext) *ConfirmationDataResponse {
	if authCtx.Status == StatusSuccess {
		return &ConfirmationDataResponse{
			AuthResult: "AUTHENTICATION_SUCCESS",
			SUPI:       authCtx.SUPI,
			KSEAF:      authCtx.KSEAF,
		}
	}
	return &ConfirmationDataResponse{AuthResult: "AUTHENTICATION_FAILURE"}
}

// GetAuthContext retrieves an authentication context
func (s *AuthenticationService) GetAuthContext(authCtxID string) (*AuthenticationContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	authCtx, exists := s.contexts[authCtxID]
	if !exists {
		return nil, apierror.NotFoundf("authentication context not found: %s", authCtxID)
	}

	return authCtx, nil
}

// GetStats returns authentication statistics
func (s *AuthenticationService) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{StatusOngoing: 0, StatusSuccess: 0, StatusFailure: 0}
	for _, c := range s.contexts {
		counts[c.Status]++
	}

	return map[string]interface{}{
		"active_contexts": len(s.contexts),
		"by_status":       counts,
	}
}

// CleanupExpiredContexts removes terminal or expired authentication contexts.
func (s *AuthenticationService) CleanupExpiredContexts() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, ctx := range s.contexts {
		if ctx.Status != StatusOngoing || now.After(ctx.ExpiresAt) {
			delete(s.contexts, id)
			s.logger.Debug("removed completed auth context", zap.String("auth_ctx_id", id))
		}
	}
	metrics.SetActiveAuthContexts(len(s.contexts))
}

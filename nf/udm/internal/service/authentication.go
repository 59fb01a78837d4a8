package service

import (
	"context"
	"time"

	"github.com/fivegcore/emulator/common/akahash"
	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/metrics"
	"github.com/fivegcore/emulator/nf/udm/internal/repository"
	"go.uber.org/zap"
)

// AuthenticationService handles UE authentication operations (Nudm_UEAU).
type AuthenticationService struct {
	repo   repository.Repository
	logger *zap.Logger
}

// NewAuthenticationService creates a new authentication service.
func NewAuthenticationService(repo repository.Repository, logger *zap.Logger) *AuthenticationService {
	return &AuthenticationService{repo: repo, logger: logger}
}

// AuthenticationInfo represents an authentication information request.
type AuthenticationInfo struct {
	SUPI                  string `json:"supi"`
	ServingNetworkName    string `json:"servingNetworkName"`
	ResynchronizationInfo *struct {
		RAND string `json:"rand"`
		AUTS string `json:"auts"`
	} `json:"resynchronizationInfo,omitempty"`
}

// AuthenticationInfoResult represents the authentication response.
type AuthenticationInfoResult struct {
	AuthType             string       `json:"authType"` // "5G_AKA" or "EAP_AKA_PRIME"
	AuthenticationVector *AVType5GAKA `json:"authenticationVector,omitempty"`
}

// AVType5GAKA represents a 5G AKA authentication vector.
type AVType5GAKA struct {
	RAND  string `json:"rand"`
	AUTN  string `json:"autn"`
	HXRES string `json:"hxres"`
	KAUSF string `json:"kausf"`
}

// GenerateAuthData derives an authentication vector for a UE. The permanent
// key never leaves the store; RAND/XRES/AUTN/KAUSF are all hash-derived from
// it (akahash), standing in for Milenage/TUAK which this emulator does not
// implement. Unknown SUPI surfaces as not-found; no crypto error is ever
// returned to the caller (spec §4.2 — "no crypto errors are surfaced").
func (s *AuthenticationService) GenerateAuthData(ctx context.Context, authInfo *AuthenticationInfo) (*AuthenticationInfoResult, error) {
	start := time.Now()
	s.logger.Info("generating authentication data",
		zap.String("supi", authInfo.SUPI),
		zap.String("serving_network", authInfo.ServingNetworkName),
	)

	authSub, err := s.repo.GetAuthenticationSubscription(ctx, authInfo.SUPI)
	if err != nil {
		metrics.RecordVectorGeneration("not_found")
		return nil, apierror.NotFoundf("unknown SUPI: %s", authInfo.SUPI)
	}

	if _, err := s.repo.IncrementSQN(ctx, authInfo.SUPI); err != nil {
		s.logger.Warn("failed to increment SQN, continuing with stale value", zap.String("supi", authInfo.SUPI), zap.Error(err))
	} else {
		metrics.RecordSQNIncrement()
	}

	vec, err := akahash.Derive([]byte(authSub.PermanentKey), authInfo.ServingNetworkName)
	if err != nil {
		metrics.RecordVectorGeneration("failure")
		metrics.RecordVectorGenerationDuration(time.Since(start).Seconds())
		s.logger.Error("authentication vector derivation failed", zap.String("supi", authInfo.SUPI), zap.Error(err))
		return nil, apierror.Internal("authentication vector derivation failed", err)
	}

	metrics.RecordVectorGeneration("success")
	metrics.RecordVectorGenerationDuration(time.Since(start).Seconds())

	hxres := akahash.DeriveHXRES(vec.XRES)

	s.logger.Info("generated authentication vector",
		zap.String("supi", authInfo.SUPI),
		zap.String("auth_method", authSub.AuthenticationMethod),
	)

	return &AuthenticationInfoResult{
		AuthType: "5G_AKA",
		AuthenticationVector: &AVType5GAKA{
			RAND:  vec.RAND,
			AUTN:  vec.AUTN,
			HXRES: hxres,
			KAUSF: vec.KAUSF,
		},
	}, nil
}

// ConfirmAuth records the outcome of an authentication attempt.
func (s *AuthenticationService) ConfirmAuth(ctx context.Context, supi string, success bool, servingNetwork string) error {
	s.logger.Info("confirming authentication", zap.String("supi", supi), zap.Bool("success", success))
	return nil
}

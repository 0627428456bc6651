package callback

import (
	"context"
	"errors"
	"time"

	"github.com/squareft/authbridge/internal/config"
	"github.com/squareft/authbridge/internal/logger"
	"github.com/squareft/authbridge/internal/provider"
	"github.com/squareft/authbridge/internal/session"
	"go.uber.org/zap"
)

// State names one step of callback processing. Terminal outcomes are
// StateRouted and StateErrored; the rest exist for observability.
type State string

const (
	StateStart        State = "start"
	StateClassified   State = "classified"
	StateExchanging   State = "exchanging"
	StateVerifying    State = "verifying"
	StateProvisioning State = "provisioning"
	StateRouted       State = "routed"
	StateErrored      State = "errored"
)

// Redirect pauses before navigation, long enough that the confirmation state
// registers without feeling like a stall.
const (
	confirmDelay = 1500 * time.Millisecond
	routeDelay   = 1000 * time.Millisecond
)

// Outcome is the terminal result of one callback invocation.
type Outcome struct {
	State   State
	Route   string        // navigation target when routed
	Message string        // user-visible confirmation or error text
	Delay   time.Duration // confirmation pause before the redirect fires
}

func (o Outcome) Errored() bool { return o.State == StateErrored }

// Provisioner creates the first-run profile/organization records for a newly
// confirmed identity. Implementations must be idempotent by lookup.
type Provisioner interface {
	EnsureProfile(ctx context.Context, user provider.User) error
}

// Pusher hands a concluded session to the other execution context.
type Pusher interface {
	Push(ctx context.Context, sess session.Session)
}

// Machine is the single entry point for inbound authentication redirects.
type Machine struct {
	provider    provider.Client
	provisioner Provisioner
	pusher      Pusher
}

func NewMachine(client provider.Client, provisioner Provisioner, pusher Pusher) *Machine {
	return &Machine{
		provider:    client,
		provisioner: provisioner,
		pusher:      pusher,
	}
}

// Handle runs the request through the state machine as one linear sequence;
// no step starts before the previous one resolves, and there is no
// cancellation beyond the caller's context.
func (m *Machine) Handle(ctx context.Context, req Request) Outcome {
	m.transition(StateClassified, req)

	// An explicit provider rejection short-circuits everything else.
	if req.ProviderError != "" {
		message := req.ProviderErrorDescription
		if message == "" {
			message = req.ProviderError
		}
		return m.errored(message)
	}

	switch req.Flow {
	case FlowOTP:
		return m.handleOTP(ctx, req)
	case FlowPKCE:
		return m.handlePKCE(ctx, req)
	case FlowImplicit:
		return m.handleImplicit(ctx, req)
	default:
		return m.handleBare(ctx)
	}
}

func (m *Machine) handleOTP(ctx context.Context, req Request) Outcome {
	m.transition(StateVerifying, req)

	grant, err := m.provider.VerifyOTP(ctx, req.TokenHash, req.otpType())
	if err != nil {
		logger.Error("token verification failed", zap.Error(err))
		return m.errored(messageOf(err, "Failed to verify email"))
	}

	m.provision(ctx, grant)

	// Email confirmation must not leave the browser silently authenticated;
	// the user confirms, then logs in explicitly.
	if req.Purpose == PurposeSignup || req.Purpose == PurposeEmailChange {
		return m.signOutToLogin(ctx, "Email confirmed! Redirecting to login...")
	}

	m.pushSession(ctx, grant)
	return m.routed(config.RouteDashboard, "Verified! Redirecting...", routeDelay)
}

func (m *Machine) handlePKCE(ctx context.Context, req Request) Outcome {
	m.transition(StateExchanging, req)

	grant, err := m.provider.ExchangeCodeForSession(ctx, req.Code)
	if err != nil {
		if provider.CodeOf(err) == provider.CodeMissingVerifier {
			return m.downgradeMissingVerifier(ctx, req)
		}
		logger.Error("code exchange failed", zap.Error(err))
		return m.errored(messageOf(err, "Failed to verify authentication"))
	}

	m.provision(ctx, grant)
	return m.routeByPurpose(ctx, req.Purpose, grant)
}

// downgradeMissingVerifier resolves a context-bound link opened elsewhere.
// Recovery and magic-link links are single-use and unrecoverable without the
// verifier; confirmation links already had their server-side effect, so the
// user just needs to sign in normally.
func (m *Machine) downgradeMissingVerifier(ctx context.Context, req Request) Outcome {
	logger.Info("verifier not found for callback", zap.String("purpose", string(req.Purpose)))

	switch req.Purpose {
	case PurposeRecovery:
		return m.errored("Reset link expired. Please request a new password reset.")
	case PurposeMagicLink:
		return m.errored("Magic link expired. Please request a new one.")
	default:
		return m.routed(config.RouteLoginConfirmed, "Email verified! Please sign in.", confirmDelay)
	}
}

func (m *Machine) handleImplicit(ctx context.Context, req Request) Outcome {
	m.transition(StateExchanging, req)

	grant, err := m.provider.SetSession(ctx, req.AccessToken, req.RefreshToken)
	if err != nil {
		logger.Error("failed to install fragment session", zap.Error(err))
		return m.errored(messageOf(err, "Failed to verify authentication"))
	}

	m.provision(ctx, grant)
	return m.routeByPurpose(ctx, req.Purpose, grant)
}

// handleBare covers a callback with no credentials at all: an existing local
// session finishes as already-authenticated, otherwise the link is dead.
func (m *Machine) handleBare(ctx context.Context) Outcome {
	if _, ok := m.provider.GetSession(ctx); ok {
		return m.routed(config.RouteDashboard, "Already logged in! Redirecting...", routeDelay)
	}
	return m.errored("Invalid or expired authentication link. Please try again.")
}

// routeByPurpose is the shared post-exchange branch for pkce and implicit.
func (m *Machine) routeByPurpose(ctx context.Context, purpose Purpose, grant *provider.Grant) Outcome {
	switch purpose {
	case PurposeSignup, PurposeEmailChange:
		return m.signOutToLogin(ctx, "Email confirmed! Redirecting to login...")
	case PurposeRecovery:
		m.pushSession(ctx, grant)
		return m.routed(config.RouteResetPassword, "Verified! Redirecting to reset password...", routeDelay)
	case PurposeInvite:
		m.pushSession(ctx, grant)
		return m.routed(config.RouteDashboard, "Invite accepted! Redirecting...", confirmDelay)
	default:
		m.pushSession(ctx, grant)
		return m.routed(config.RouteDashboard, "Login successful! Redirecting to dashboard...", routeDelay)
	}
}

// provision runs the first-run profile step. It never gates routing: a user
// must not be stuck on the callback screen because a profile insert raced.
func (m *Machine) provision(ctx context.Context, grant *provider.Grant) {
	if grant.User == nil {
		return
	}
	m.transition(StateProvisioning, Request{})
	if err := m.provisioner.EnsureProfile(ctx, *grant.User); err != nil {
		logger.Error("profile provisioning failed", zap.String("user_id", grant.User.ID), zap.Error(err))
	}
}

func (m *Machine) pushSession(ctx context.Context, grant *provider.Grant) {
	if m.pusher == nil {
		return
	}
	m.pusher.Push(ctx, grant.Session())
}

func (m *Machine) signOutToLogin(ctx context.Context, message string) Outcome {
	if err := m.provider.SignOut(ctx); err != nil {
		logger.Warn("sign-out after confirmation failed", zap.Error(err))
	}
	return m.routed(config.RouteLoginConfirmed, message, confirmDelay)
}

func (m *Machine) routed(route, message string, delay time.Duration) Outcome {
	m.transition(StateRouted, Request{})
	return Outcome{State: StateRouted, Route: route, Message: message, Delay: delay}
}

func (m *Machine) errored(message string) Outcome {
	m.transition(StateErrored, Request{})
	return Outcome{State: StateErrored, Message: message}
}

func (m *Machine) transition(state State, req Request) {
	logger.Debug("callback transition",
		zap.String("state", string(state)),
		zap.String("flow", string(req.Flow)),
		zap.String("purpose", string(req.Purpose)),
	)
}

func messageOf(err error, fallback string) string {
	var pe *provider.Error
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}

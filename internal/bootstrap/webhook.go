// Package bootstrap performs the one-time webhook registration against the
// chat platform. It sits entirely outside the steady-state request path: the
// provisioning flow asks for the webhook to be created, updated, or removed,
// and gets back exactly one reportable outcome per request.
package bootstrap

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// RequestType is the provisioning action being applied.
type RequestType string

const (
	Create RequestType = "Create"
	Update RequestType = "Update"
	Delete RequestType = "Delete"
)

// Request describes one provisioning action.
type Request struct {
	Type RequestType
	// WebhookURL is the public https endpoint the platform should deliver
	// updates to. Required for Create and Update, ignored for Delete.
	WebhookURL string
}

// Status is the reportable outcome of a Request.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Result is what the provisioning collaborator receives back.
type Result struct {
	Status Status
	// WebhookURL echoes the registered endpoint on success.
	WebhookURL string
	// Reason carries an actionable error message on failure.
	Reason string
}

// Registrar is the platform capability the bootstrap needs: register or
// remove the webhook subscription.
type Registrar interface {
	RegisterWebhook(ctx context.Context, url string) error
	UnregisterWebhook(ctx context.Context) error
}

// Reporter delivers a Result back to whoever asked for the change.
type Reporter interface {
	Report(ctx context.Context, req Request, res Result)
}

// invalidTokenHint replaces the platform's terse rejection with an operator
// instruction, since an invalid stored token is the usual cause.
const invalidTokenHint = "the stored bot token is invalid; update the parameter store value with a valid token"

// Apply executes one provisioning request and returns its outcome.
//
// Create and Update both (re-)register the webhook; the platform treats
// registration as an upsert, so the two are one transition. Delete removes
// the subscription best-effort and always succeeds, matching teardown
// semantics where a half-gone webhook must not block stack deletion.
func Apply(ctx context.Context, reg Registrar, req Request) Result {
	switch req.Type {
	case Create, Update:
		if strings.TrimSpace(req.WebhookURL) == "" {
			return Result{Status: StatusFailed, Reason: "webhook url is required"}
		}
		if err := reg.RegisterWebhook(ctx, req.WebhookURL); err != nil {
			reason := err.Error()
			if isInvalidToken(err) {
				reason = invalidTokenHint
			}
			return Result{Status: StatusFailed, Reason: reason}
		}
		return Result{Status: StatusSuccess, WebhookURL: req.WebhookURL}

	case Delete:
		if err := reg.UnregisterWebhook(ctx); err != nil {
			log.Warn().Err(err).Msg("webhook removal failed; continuing teardown")
		}
		return Result{Status: StatusSuccess}

	default:
		return Result{Status: StatusFailed, Reason: "unknown request type " + string(req.Type)}
	}
}

// Run applies the request and reports the outcome in one step.
func Run(ctx context.Context, reg Registrar, rep Reporter, req Request) Result {
	res := Apply(ctx, reg, req)
	if rep != nil {
		rep.Report(ctx, req, res)
	}
	return res
}

// isInvalidToken sniffs the platform's authentication rejections. The send
// API reports these as 401/404 with "Unauthorized" or "Not Found" text
// depending on how malformed the token is.
func isInvalidToken(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid token")
}

// LogReporter reports outcomes to the process log. It is the default
// collaborator when the gateway registers its own webhook on startup.
type LogReporter struct{}

// Report writes one structured line per outcome.
func (LogReporter) Report(_ context.Context, req Request, res Result) {
	ev := log.Info()
	if res.Status == StatusFailed {
		ev = log.Error().Str("reason", res.Reason)
	}
	ev.Str("request", string(req.Type)).
		Str("status", string(res.Status)).
		Str("webhook_url", res.WebhookURL).
		Msg("webhook provisioning")
}

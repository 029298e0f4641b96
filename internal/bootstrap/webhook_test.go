package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeRegistrar struct {
	registered   []string
	unregistered int
	registerErr  error
	unregErr     error
}

func (f *fakeRegistrar) RegisterWebhook(_ context.Context, url string) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, url)
	return nil
}

func (f *fakeRegistrar) UnregisterWebhook(context.Context) error {
	f.unregistered++
	return f.unregErr
}

type recordingReporter struct {
	reqs []Request
	ress []Result
}

func (r *recordingReporter) Report(_ context.Context, req Request, res Result) {
	r.reqs = append(r.reqs, req)
	r.ress = append(r.ress, res)
}

func TestApply_CreateRegistersAndSucceeds(t *testing.T) {
	reg := &fakeRegistrar{}
	res := Apply(context.Background(), reg, Request{Type: Create, WebhookURL: "https://gw.example.com/webhook"})

	if res.Status != StatusSuccess {
		t.Fatalf("status = %s; reason = %q", res.Status, res.Reason)
	}
	if res.WebhookURL != "https://gw.example.com/webhook" {
		t.Fatalf("result url = %q", res.WebhookURL)
	}
	if len(reg.registered) != 1 || reg.registered[0] != "https://gw.example.com/webhook" {
		t.Fatalf("registered = %v", reg.registered)
	}
}

func TestApply_UpdateIsAlsoARegistration(t *testing.T) {
	reg := &fakeRegistrar{}
	res := Apply(context.Background(), reg, Request{Type: Update, WebhookURL: "https://gw.example.com/v2"})
	if res.Status != StatusSuccess || len(reg.registered) != 1 {
		t.Fatalf("update outcome = %+v, registered = %v", res, reg.registered)
	}
}

func TestApply_MissingURLFails(t *testing.T) {
	reg := &fakeRegistrar{}
	res := Apply(context.Background(), reg, Request{Type: Create, WebhookURL: "  "})
	if res.Status != StatusFailed || res.Reason == "" {
		t.Fatalf("outcome = %+v; want failure with reason", res)
	}
	if len(reg.registered) != 0 {
		t.Fatalf("no registration should be attempted without a url")
	}
}

func TestApply_RegistrationFailureCarriesReason(t *testing.T) {
	reg := &fakeRegistrar{registerErr: errors.New("telegram: 502 bad gateway")}
	res := Apply(context.Background(), reg, Request{Type: Create, WebhookURL: "https://gw.example.com"})
	if res.Status != StatusFailed || !strings.Contains(res.Reason, "502") {
		t.Fatalf("outcome = %+v", res)
	}
}

func TestApply_InvalidTokenGetsActionableHint(t *testing.T) {
	reg := &fakeRegistrar{registerErr: errors.New("telegram: 401 Unauthorized")}
	res := Apply(context.Background(), reg, Request{Type: Create, WebhookURL: "https://gw.example.com"})
	if res.Status != StatusFailed {
		t.Fatalf("status = %s", res.Status)
	}
	if !strings.Contains(res.Reason, "update the parameter store value") {
		t.Fatalf("reason = %q; want operator hint", res.Reason)
	}
}

func TestApply_DeleteIsBestEffortSuccess(t *testing.T) {
	reg := &fakeRegistrar{unregErr: errors.New("already gone")}
	res := Apply(context.Background(), reg, Request{Type: Delete})
	if res.Status != StatusSuccess {
		t.Fatalf("delete must succeed even when removal fails, got %+v", res)
	}
	if reg.unregistered != 1 {
		t.Fatalf("unregistered = %d; want 1", reg.unregistered)
	}
}

func TestApply_UnknownTypeFails(t *testing.T) {
	res := Apply(context.Background(), &fakeRegistrar{}, Request{Type: "Rotate"})
	if res.Status != StatusFailed || !strings.Contains(res.Reason, "Rotate") {
		t.Fatalf("outcome = %+v", res)
	}
}

func TestRun_ReportsOutcome(t *testing.T) {
	reg := &fakeRegistrar{}
	rep := &recordingReporter{}
	res := Run(context.Background(), reg, rep, Request{Type: Create, WebhookURL: "https://gw.example.com"})

	if res.Status != StatusSuccess {
		t.Fatalf("status = %s", res.Status)
	}
	if len(rep.ress) != 1 || rep.ress[0].Status != StatusSuccess {
		t.Fatalf("reported = %+v", rep.ress)
	}
	if rep.reqs[0].Type != Create {
		t.Fatalf("reported request = %+v", rep.reqs[0])
	}
}

func TestRun_NilReporterIsAllowed(t *testing.T) {
	res := Run(context.Background(), &fakeRegistrar{}, nil, Request{Type: Delete})
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s", res.Status)
	}
}

package engine

import (
	"github.com/vitaminmoo/bw16-tool/internal/config"
	"github.com/vitaminmoo/bw16-tool/internal/notify"
)

// auditNotifier writes events to the audit trail.
type auditNotifier struct {
	a Auditor
}

func (n auditNotifier) Notify(ev notify.Event) {
	if err := n.a.Audit("EVENT %s %s", ev.Kind, ev.Detail); err != nil {
		config.Log.Warnf("audit: %v", err)
	}
}

// credentialSaver persists captured credentials synchronously on the
// receive path.
type credentialSaver struct {
	a Auditor
}

func (n credentialSaver) Notify(ev notify.Event) {
	if ev.Kind != notify.CredentialCaptured {
		return
	}
	if err := n.a.AppendCredential(ev.Detail); err != nil {
		config.Log.Warnf("failed to save credential: %v", err)
	}
}

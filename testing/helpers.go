// Package vigiltest provides test utilities for vigil.
package vigiltest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/zoobzio/vigil"
	"github.com/zoobz-io/zyn"
)

// ScriptedProvider implements vigil.Provider, returning canned responses in
// order. Tests script the LLM instead of calling one.
type ScriptedProvider struct {
	mu        sync.Mutex
	responses []string
	calls     int
	err       error
}

// NewScriptedProvider creates a provider that replays the given responses.
// The last response repeats once the script runs out.
func NewScriptedProvider(responses ...string) *ScriptedProvider {
	return &ScriptedProvider{responses: responses}
}

// NewFailingProvider creates a provider whose every call fails with err.
func NewFailingProvider(err error) *ScriptedProvider {
	return &ScriptedProvider{err: err}
}

// Call implements vigil.Provider.
func (p *ScriptedProvider) Call(_ context.Context, _ []zyn.Message, _ float32) (*zyn.ProviderResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	if len(p.responses) == 0 {
		return nil, fmt.Errorf("scripted provider has no responses")
	}

	i := p.calls
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	p.calls++

	content := p.responses[i]
	return &zyn.ProviderResponse{
		Content: content,
		Usage: zyn.TokenUsage{
			Prompt:     10,
			Completion: len(content) / 4,
			Total:      10 + len(content)/4,
		},
	}, nil
}

// Name implements vigil.Provider.
func (p *ScriptedProvider) Name() string {
	return "scripted"
}

// Calls returns how many times the provider has been invoked.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Verify ScriptedProvider implements vigil.Provider.
var _ vigil.Provider = (*ScriptedProvider)(nil)

// NewTestMonitor creates a monitor over a fresh store for testing.
func NewTestMonitor(t *testing.T) (*vigil.Monitor, *vigil.SessionStore) {
	t.Helper()
	store := vigil.NewSessionStore()
	return vigil.NewMonitor(vigil.WithStore(store)), store
}

// ProcessAll feeds each content string through the monitor as an assistant
// turn on the same session, returning the signals from the final turn.
func ProcessAll(t *testing.T, m *vigil.Monitor, sessionID string, contents ...string) vigil.MonitoringSignals {
	t.Helper()

	var signals vigil.MonitoringSignals
	for _, content := range contents {
		var err error
		signals, err = m.ProcessThought(context.Background(), vigil.ThoughtRequest{
			SessionID: sessionID,
			Content:   content,
		})
		if err != nil {
			t.Fatalf("process thought %q: %v", content, err)
		}
	}
	return signals
}

// RequireAlert asserts the named detector is alerting.
func RequireAlert(t *testing.T, signals vigil.MonitoringSignals, detector string) {
	t.Helper()

	var alerting bool
	switch detector {
	case "circular":
		alerting = signals.Circular.Alert
	case "distractor":
		alerting = signals.Distractor.Alert
	case "quality":
		alerting = signals.Quality.Alert
	default:
		t.Fatalf("unknown detector %q", detector)
	}
	if !alerting {
		t.Fatalf("expected %s alert, got signals %+v", detector, signals)
	}
}

// Quality builds a Quality value, keeping test tables compact.
func Quality(coherence, density, confidence float64) *vigil.Quality {
	return &vigil.Quality{
		Coherence:          coherence,
		InformationDensity: density,
		Confidence:         confidence,
	}
}

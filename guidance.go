package vigil

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobz-io/zyn"
)

const defaultGuidancePrompt = "Rephrase this intervention as direct, encouraging guidance " +
	"the reasoning process can act on immediately, grounded in the session context"

// GuidanceSynthesizer rewrites an intervention's template message into
// session-specific guidance through an LLM transform synapse. It is an
// optional layer: the template messages from the engine are usable as-is,
// and callers without a provider skip synthesis entirely.
type GuidanceSynthesizer struct {
	prompt      string
	provider    Provider
	temperature float32
}

// NewGuidanceSynthesizer creates a synthesizer with the default prompt and
// creative temperature.
//
// Example:
//
//	synth := vigil.NewGuidanceSynthesizer().WithProvider(provider)
//	guidance, err := synth.Synthesize(ctx, intervention, reconstructed)
func NewGuidanceSynthesizer() *GuidanceSynthesizer {
	return &GuidanceSynthesizer{
		prompt:      defaultGuidancePrompt,
		temperature: zyn.DefaultTemperatureCreative,
	}
}

// WithPrompt sets a custom synthesis prompt.
func (g *GuidanceSynthesizer) WithPrompt(prompt string) *GuidanceSynthesizer {
	g.prompt = prompt
	return g
}

// WithProvider sets the provider for the LLM call.
func (g *GuidanceSynthesizer) WithProvider(p Provider) *GuidanceSynthesizer {
	g.provider = p
	return g
}

// WithTemperature overrides the synthesis temperature.
func (g *GuidanceSynthesizer) WithTemperature(t float32) *GuidanceSynthesizer {
	g.temperature = t
	return g
}

// Synthesize rewrites the intervention message against the reasoning
// context. Provider resolution follows the usual order: synthesizer-level,
// then context, then global.
func (g *GuidanceSynthesizer) Synthesize(ctx context.Context, iv Intervention, reasoningContext string) (string, error) {
	start := time.Now()

	provider, err := ResolveProvider(ctx, g.provider)
	if err != nil {
		return "", fmt.Errorf("guidance: %w", err)
	}

	transformSynapse, err := zyn.Transform(g.prompt, provider)
	if err != nil {
		g.emitFailed(ctx, iv, start, err)
		return "", fmt.Errorf("guidance: failed to create transform synapse: %w", err)
	}

	guidance, err := transformSynapse.FireWithInput(ctx, zyn.NewSession(), zyn.TransformInput{
		Text:        iv.Message,
		Context:     reasoningContext,
		Style:       g.prompt,
		Temperature: g.temperature,
	})
	if err != nil {
		g.emitFailed(ctx, iv, start, err)
		return "", fmt.Errorf("guidance: transform synapse execution failed: %w", err)
	}

	capitan.Emit(ctx, GuidanceSynthesized,
		FieldTurnIndex.Field(iv.AtIndex),
		FieldKind.Field(string(iv.Kind)),
		FieldContentSize.Field(len(guidance)),
	)
	return guidance, nil
}

func (g *GuidanceSynthesizer) emitFailed(ctx context.Context, iv Intervention, start time.Time, err error) {
	capitan.Error(ctx, GuidanceSynthesized,
		FieldTurnIndex.Field(iv.AtIndex),
		FieldKind.Field(string(iv.Kind)),
		FieldDuration.Field(time.Since(start)),
		FieldError.Field(err),
	)
}

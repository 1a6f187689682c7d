package guardrails

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/models"
)

func newTestEngine() *Engine {
	cfg := common.NewDefaultConfig()
	return NewEngine(&cfg.Guardrails, common.GetLogger())
}

func sources(contents ...string) []models.Passage {
	passages := make([]models.Passage, 0, len(contents))
	for _, c := range contents {
		passages = append(passages, models.Passage{
			Content:    c,
			SourceKind: models.SourceAuthoritative,
			DocID:      "F1",
			ChunkID:    "c1",
		})
	}
	return passages
}

func TestIsSensitive(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name     string
		question string
		want     bool
	}{
		{
			name:     "plain question is not sensitive",
			question: "What colors does the car come in?",
			want:     false,
		},
		{
			name:     "price keyword",
			question: "What is the price of the base model?",
			want:     true,
		},
		{
			name:     "case insensitive match",
			question: "Tell me about the WARRANTY terms",
			want:     true,
		},
		{
			name:     "keyword embedded in longer word",
			question: "Is the paint costly to repair?", // "cost" substring
			want:     true,
		},
		{
			name:     "empty question",
			question: "",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.IsSensitive(tt.question))
		})
	}
}

func TestIsSensitiveMonotonic(t *testing.T) {
	// Adding text to a sensitive question never makes it non-sensitive
	engine := newTestEngine()

	base := "what is the delivery time"
	assert.True(t, engine.IsSensitive(base))
	assert.True(t, engine.IsSensitive(base+" for the premium trim in Europe?"))
}

func TestValidateAnswerEmptySources(t *testing.T) {
	engine := newTestEngine()

	assert.False(t, engine.ValidateAnswer("Any answer at all.", nil))
	assert.False(t, engine.ValidateAnswer("Any answer at all.", []models.Passage{}))
}

func TestValidateAnswerFabricationPhrases(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name    string
		answer  string
		sources []models.Passage
		want    bool
	}{
		{
			name:    "hedging phrase absent from sources fails",
			answer:  "The range is approximately 500 km.",
			sources: sources("The range is 500 km on the WLTP cycle."),
			want:    false,
		},
		{
			name:    "hedging phrase present in sources passes",
			answer:  "The range is approximately 500 km.",
			sources: sources("The range is approximately 500 km depending on conditions."),
			want:    true,
		},
		{
			name:    "clean answer passes",
			answer:  "The range is 500 km.",
			sources: sources("The range is 500 km on the WLTP cycle."),
			want:    true,
		},
		{
			name:    "phrase match is case insensitive on the answer side",
			answer:  "It is PROBABLY the fastest trim.",
			sources: sources("The performance trim accelerates quickly."),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.ValidateAnswer(tt.answer, tt.sources))
		})
	}
}

func TestValidateAnswerNumericClaims(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name    string
		answer  string
		sources []models.Passage
		want    bool
	}{
		{
			name:    "specific number absent from sources fails",
			answer:  "The motor delivers 1500 Nm of torque.",
			sources: sources("The motor is powerful and quiet."),
			want:    false,
		},
		{
			name:    "specific number present in sources passes",
			answer:  "The motor delivers 1500 Nm of torque.",
			sources: sources("Peak output is 1500 Nm of torque."),
			want:    true,
		},
		{
			name:    "plausible year absent from sources passes",
			answer:  "The model was introduced in 2021.",
			sources: sources("The model replaced its predecessor."),
			want:    true,
		},
		{
			name:    "small number absent from sources passes",
			answer:  "It has 5 seats and 2 motors.",
			sources: sources("The cabin is spacious."),
			want:    true,
		},
		{
			name:    "decimal absent from sources fails",
			answer:  "Battery capacity is 825.5 kWh.",
			sources: sources("The battery uses blade cells."),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.ValidateAnswer(tt.answer, tt.sources))
		})
	}
}

func TestShouldRefuseSensitive(t *testing.T) {
	engine := newTestEngine()

	assert.True(t, engine.ShouldRefuseSensitive(true, false))
	assert.False(t, engine.ShouldRefuseSensitive(true, true))
	assert.False(t, engine.ShouldRefuseSensitive(false, false))
	assert.False(t, engine.ShouldRefuseSensitive(false, true))
}

func TestRefusalMessages(t *testing.T) {
	engine := newTestEngine()

	// Each kind has a distinct, non-empty message
	seen := map[string]bool{}
	for _, kind := range []RefusalKind{RefusalSensitive, RefusalInsufficientInfo, RefusalValidationFailed} {
		msg := engine.RefusalMessage(kind)
		assert.NotEmpty(t, msg)
		assert.False(t, seen[msg], "duplicate refusal message for %s", kind)
		seen[msg] = true
	}
}

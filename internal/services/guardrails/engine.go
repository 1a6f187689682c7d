package guardrails

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/models"
)

// RefusalKind selects the refusal message template
type RefusalKind string

const (
	RefusalSensitive        RefusalKind = "sensitive"
	RefusalInsufficientInfo RefusalKind = "insufficient_info"
	RefusalValidationFailed RefusalKind = "validation_failed"
)

// questionLogLimit truncates questions in audit logs
const questionLogLimit = 100

// numberPattern matches numeric tokens, including thousands separators
// and decimals
var numberPattern = regexp.MustCompile(`[0-9,]+(?:\.[0-9]+)?`)

// Numeric tokens below commonNumberCeiling are too ordinary to flag;
// tokens within [yearFloor, yearCeiling] are treated as plausible years.
const (
	commonNumberCeiling = 100
	yearFloor           = 1900
	yearCeiling         = 2030
)

// Engine implements the answer guardrails: topic-sensitivity
// classification, anti-fabrication validation, and refusal selection.
// Pure decision functions; the only side effect is audit logging.
type Engine struct {
	sensitiveTopics    []string
	fabricationPhrases []string
	logger             arbor.ILogger
}

// NewEngine creates a guardrail engine from configuration
func NewEngine(cfg *common.GuardrailsConfig, logger arbor.ILogger) *Engine {
	return &Engine{
		sensitiveTopics:    cfg.SensitiveTopics,
		fabricationPhrases: cfg.FabricationPhrases,
		logger:             logger,
	}
}

// IsSensitive reports whether the question touches a configured sensitive
// topic. Case-insensitive substring match, first match short-circuits.
func (e *Engine) IsSensitive(question string) bool {
	questionLower := strings.ToLower(question)
	for _, topic := range e.sensitiveTopics {
		if strings.Contains(questionLower, topic) {
			e.logger.Info().Str("topic", topic).Str("question", truncate(question)).Msg("Question flagged as sensitive")
			return true
		}
	}
	return false
}

// ValidateAnswer reports whether the generated answer is grounded in the
// source passages. It fails on an empty source set, on hedging phrases
// absent from the sources, and on specific numeric claims absent from
// the sources.
func (e *Engine) ValidateAnswer(answer string, sources []models.Passage) bool {
	if len(sources) == 0 {
		e.logger.Warn().Msg("No sources provided for answer validation")
		return false
	}

	var builder strings.Builder
	for i, src := range sources {
		if i > 0 {
			builder.WriteString(" ")
		}
		builder.WriteString(src.Content)
	}
	sourceContent := strings.ToLower(builder.String())
	answerLower := strings.ToLower(answer)

	for _, phrase := range e.fabricationPhrases {
		if strings.Contains(answerLower, phrase) && !strings.Contains(sourceContent, phrase) {
			e.logger.Warn().Str("phrase", phrase).Msg("Potential fabrication indicator found in answer")
			return false
		}
	}

	if e.containsUnsourcedNumbers(answer, sourceContent) {
		e.logger.Warn().Msg("Answer contains specific numbers not found in sources")
		return false
	}

	return true
}

// containsUnsourcedNumbers flags numeric tokens that do not appear
// verbatim in the source text. Small numbers and plausible years are
// exempt. This is a string-containment heuristic, not a sound check.
func (e *Engine) containsUnsourcedNumbers(answer, sourceContent string) bool {
	for _, token := range numberPattern.FindAllString(answer, -1) {
		if strings.Contains(sourceContent, token) {
			continue
		}

		value, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
		if err != nil {
			continue
		}
		if value < commonNumberCeiling {
			continue
		}
		if value >= yearFloor && value <= yearCeiling {
			continue
		}
		return true
	}
	return false
}

// ShouldRefuseSensitive reports whether a sensitive question must be
// refused because no authoritative passages were retrieved
func (e *Engine) ShouldRefuseSensitive(isSensitive, hasAuthoritative bool) bool {
	return isSensitive && !hasAuthoritative
}

// RefusalMessage returns the fixed refusal text for the given kind
func (e *Engine) RefusalMessage(kind RefusalKind) string {
	switch kind {
	case RefusalSensitive:
		return "I cannot provide information about pricing, warranty, or technical " +
			"specifications as this information is not available in my reliable sources."
	case RefusalInsufficientInfo:
		return "I don't have enough information to answer this question safely."
	case RefusalValidationFailed:
		return "I cannot provide a reliable answer based on the available sources. " +
			"Please try rephrasing your question or ask about topics covered in " +
			"the reliable documentation."
	default:
		return "I cannot provide information on this topic."
	}
}

// LogAction records a guardrail decision for audit
func (e *Engine) LogAction(action, question, reason string) {
	e.logger.Info().
		Str("action", action).
		Str("question", truncate(question)).
		Str("reason", reason).
		Msg("Guardrail action")
}

func truncate(question string) string {
	if len(question) <= questionLogLimit {
		return question
	}
	return question[:questionLogLimit] + "..."
}

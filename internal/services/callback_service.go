package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pitchcraft/pitchcraft-api/internal/models"
	"gorm.io/gorm"
)

// Callback payload failures. These all mean "respond 400, write nothing".
var (
	ErrMalformedPayload     = errors.New("callback payload is not valid JSON")
	ErrMissingCorrelationID = errors.New("callback payload carries no correlation id")
	ErrMissingContent       = errors.New("callback payload carries no recognisable content")
)

// resultKind says which column the extracted content belongs in.
type resultKind string

const (
	resultPitch    resultKind = "pitch"
	resultGuidance resultKind = "guidance"
)

// CallbackService turns the engine's loosely-shaped completion payloads into
// one persisted write. The engine has shipped several payload shapes over
// time (top-level fields, a nested data object, a nested output.data object),
// so extraction runs an ordered rule table and takes the first hit.
type CallbackService struct {
	DB        *gorm.DB
	sanitizer *bluemonday.Policy
}

func NewCallbackService(db *gorm.DB) *CallbackService {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("p", "br", "strong", "em", "b", "i", "u", "ul", "ol", "li", "h2", "h3")
	return &CallbackService{DB: db, sanitizer: policy}
}

// CallbackOutcome reports what happened. Matched=false with a warning is a
// soft success: we answer 200 so the engine stops retrying a callback that
// will never find its record.
type CallbackOutcome struct {
	Matched   bool
	RequestID string
	Kind      resultKind
	Warning   string
}

// Process handles one callback invocation end to end. It is idempotent: the
// same payload twice produces the same final row, not a second write's worth
// of difference.
func (s *CallbackService) Process(raw []byte) (*CallbackOutcome, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrMalformedPayload
	}

	requestID, ok := extractCorrelationID(payload)
	if !ok {
		return nil, ErrMissingCorrelationID
	}

	content, kind, ok := extractContent(payload)
	if !ok {
		return nil, ErrMissingContent
	}
	content = strings.TrimSpace(s.sanitizer.Sanitize(content))
	if content == "" {
		return nil, ErrMissingContent
	}

	// The correlation id is conventionally the pitch id itself, but old jobs
	// may carry engine-issued handles, so look up both columns.
	var pitch models.Pitch
	err := s.DB.Where("agent_execution_id = ? OR id = ?", requestID, requestID).First(&pitch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("⚠️  Callback for unknown request %s, acknowledging without writes", requestID)
		return &CallbackOutcome{
			Matched:   false,
			RequestID: requestID,
			Kind:      kind,
			Warning:   fmt.Sprintf("no record matches request id %s", requestID),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	// The job is over either way, so the claim is released along with the
	// write. A row with a persisted result must never read as in-progress:
	// a finished guidance job in particular has to leave the record free
	// for the pitch generation that usually follows it.
	updates := map[string]interface{}{"agent_execution_id": nil}
	eventType := ""
	switch kind {
	case resultGuidance:
		updates["ai_guidance"] = content
		eventType = "GUIDANCE_COMPLETED"
	default:
		updates["pitch_content"] = content
		updates["status"] = models.PitchStatusFinal
		eventType = "GENERATION_COMPLETED"
	}

	if err := s.DB.Model(&models.Pitch{}).Where("id = ?", pitch.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	event := models.PitchEvent{PitchID: pitch.ID, EventType: eventType, Details: fmt.Sprintf("%d characters received", len(content))}
	if err := s.DB.Create(&event).Error; err != nil {
		log.Printf("⚠️  Failed to log %s event for %s: %v", eventType, pitch.ID, err)
	}

	log.Printf("✅ Callback persisted for %s (%s)", pitch.ID, kind)
	return &CallbackOutcome{Matched: true, RequestID: requestID, Kind: kind}, nil
}

// --- extraction rules ---

// extractRule probes one known payload location. Rules run in priority
// order; the first hit wins. Keeping this a table makes the next shape the
// engine invents a one-line change.
type extractRule struct {
	name    string
	extract func(map[string]interface{}) (string, bool)
}

// Payload containers the engine has used, outermost first.
var payloadBases = [][]string{
	{},
	{"data"},
	{"output", "data"},
}

var correlationRules = []extractRule{
	{"input_variables.id_unique", pathString("input_variables", "id_unique")},
	{"data.id_unique", pathString("data", "id_unique")},
	{"output.data.id_unique", pathString("output", "data", "id_unique")},
	{"id_unique", pathString("id_unique")},
	{"requestId", pathString("requestId")},
	{"pitch_id", pathString("pitch_id")},
}

func extractCorrelationID(payload map[string]interface{}) (string, bool) {
	for _, rule := range correlationRules {
		if v, ok := rule.extract(payload); ok {
			return v, true
		}
	}
	return "", false
}

// contentRules are generated over every known base container: a "Final
// Pitch" string, an "Integration Prompt" JSON blob to reassemble, or a plain
// "AI Guidance" text.
func contentRules() []extractRule {
	var rules []extractRule
	for _, base := range payloadBases {
		base := base
		rules = append(rules, extractRule{
			name:    strings.Join(append(append([]string{}, base...), "Final Pitch"), "."),
			extract: pathString(append(append([]string{}, base...), "Final Pitch")...),
		})
	}
	for _, base := range payloadBases {
		base := base
		rules = append(rules, extractRule{
			name: strings.Join(append(append([]string{}, base...), "Integration Prompt"), "."),
			extract: func(payload map[string]interface{}) (string, bool) {
				raw, ok := pathString(append(append([]string{}, base...), "Integration Prompt")...)(payload)
				if !ok {
					return "", false
				}
				assembled, err := assembleStructuredPitch(raw)
				if err != nil {
					return "", false
				}
				return assembled, true
			},
		})
	}
	for _, base := range payloadBases {
		base := base
		rules = append(rules, extractRule{
			name:    strings.Join(append(append([]string{}, base...), "AI Guidance"), "."),
			extract: pathString(append(append([]string{}, base...), "AI Guidance")...),
		})
	}
	return rules
}

func extractContent(payload map[string]interface{}) (string, resultKind, bool) {
	for _, rule := range contentRules() {
		if v, ok := rule.extract(payload); ok && strings.TrimSpace(v) != "" {
			kind := resultPitch
			if strings.HasSuffix(rule.name, "AI Guidance") {
				kind = resultGuidance
			}
			return v, kind, true
		}
	}
	return "", resultPitch, false
}

// pathString walks nested objects and returns a non-empty string leaf.
func pathString(path ...string) func(map[string]interface{}) (string, bool) {
	return func(payload map[string]interface{}) (string, bool) {
		current := payload
		for i, key := range path {
			v, ok := current[key]
			if !ok {
				return "", false
			}
			if i == len(path)-1 {
				str, ok := v.(string)
				if !ok || str == "" {
					return "", false
				}
				return str, true
			}
			current, ok = v.(map[string]interface{})
			if !ok {
				return "", false
			}
		}
		return "", false
	}
}

// structuredPitch is the JSON the engine packs into "Integration Prompt".
type structuredPitch struct {
	Introduction string `json:"introduction"`
	StarExamples []struct {
		Content string `json:"content"`
	} `json:"starExamples"`
	Conclusion string `json:"conclusion"`
}

// assembleStructuredPitch rebuilds the structured result into paragraph
// markup: introduction, each example, conclusion, one <p> block each, no
// section headers.
func assembleStructuredPitch(raw string) (string, error) {
	var sp structuredPitch
	if err := json.Unmarshal([]byte(raw), &sp); err != nil {
		return "", err
	}

	var paragraphs []string
	if sp.Introduction != "" {
		paragraphs = append(paragraphs, "<p>"+sp.Introduction+"</p>")
	}
	for _, ex := range sp.StarExamples {
		if ex.Content != "" {
			paragraphs = append(paragraphs, "<p>"+ex.Content+"</p>")
		}
	}
	if sp.Conclusion != "" {
		paragraphs = append(paragraphs, "<p>"+sp.Conclusion+"</p>")
	}
	if len(paragraphs) == 0 {
		return "", errors.New("structured pitch is empty")
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

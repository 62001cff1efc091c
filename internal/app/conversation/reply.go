package conversation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/PabloGalante/weekendship/internal/app/extract"
	"github.com/PabloGalante/weekendship/internal/domain"
)

var (
	errNoJSON      = errors.New("no JSON object in model output")
	errInvalidPlan = errors.New("project plan does not match schema")
)

const planSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["projectOverview", "techStack", "timeline", "tips"],
  "properties": {
    "projectOverview": { "type": "string" },
    "techStack": { "type": "array", "items": { "type": "string" } },
    "timeline": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["timeBlock", "tasks"],
        "properties": {
          "timeBlock": { "type": "string" },
          "tasks": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["task", "essential", "estimatedTime"],
              "properties": {
                "task": { "type": "string" },
                "essential": { "type": "boolean" },
                "estimatedTime": { "type": "string" },
                "completed": { "type": "boolean" }
              }
            }
          }
        }
      }
    },
    "tips": { "type": "array", "items": { "type": "string" } }
  }
}`

var planSchema = mustCompileSchema(planSchemaJSON)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compiling plan schema: %v", err))
	}
	return schema
}

// replyPayload is the unified JSON shape of an assistant turn, both when the
// model answers and when a past turn is replayed as history.
type replyPayload struct {
	Message     string              `json:"message"`
	ProjectPlan *domain.ProjectPlan `json:"projectPlan"`
}

// parseReply recovers the reply text and optional plan from raw model
// output. When "message" is absent the raw output is the reply. Any
// malformed plan fails the whole parse.
func parseReply(raw string) (string, *domain.ProjectPlan, error) {
	payload, ok := extract.JSON(raw)
	if !ok {
		return "", nil, errNoJSON
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return "", nil, fmt.Errorf("decoding reply object: %w", err)
	}

	message := raw
	if v, ok := fields["message"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &message); err != nil {
			return "", nil, fmt.Errorf("decoding message field: %w", err)
		}
	}

	var plan *domain.ProjectPlan
	if v, ok := fields["projectPlan"]; ok && !isNull(v) {
		p, err := decodePlan(v)
		if err != nil {
			return "", nil, err
		}
		plan = p
	}

	return message, plan, nil
}

// decodePlan validates data against the plan schema before decoding it, so a
// plan is either complete or rejected.
func decodePlan(data []byte) (*domain.ProjectPlan, error) {
	result, err := planSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validating project plan: %w", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			issues = append(issues, e.String())
		}
		return nil, fmt.Errorf("%w: %s", errInvalidPlan, strings.Join(issues, "; "))
	}

	var plan domain.ProjectPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("decoding project plan: %w", err)
	}
	return &plan, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

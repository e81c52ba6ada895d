package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"notifyhub/internal/models"
)

// notificationSchema constrains the mutable notification fields. Recipient
// IDs may be empty (a draft addressed to nobody is legal; dispatch handles
// the empty set), but the list itself must be well formed.
var notificationSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"title": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
			"maxLength": 200,
		},
		"content": map[string]interface{}{
			"type": "string",
		},
		"type": map[string]interface{}{
			"type": "string",
		},
		"status": map[string]interface{}{
			"type": "string",
			"enum": []string{models.StatusDraft, models.StatusPublished},
		},
		"userIds": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":    "integer",
				"minimum": 1,
			},
		},
	},
	"required": []string{"title", "status"},
}

// ValidateNotification checks a notification before a transactional write.
func ValidateNotification(n *models.Notification) error {
	doc := map[string]interface{}{
		"title":   n.Title,
		"content": n.Content,
		"type":    n.Type,
		"status":  n.Status,
		"userIds": n.UserIDs,
	}

	schemaLoader := gojsonschema.NewGoLoader(notificationSchema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid notification: %s", strings.Join(msgs, "; "))
	}

	return nil
}

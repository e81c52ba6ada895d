package validation

import (
	"strings"
	"testing"

	"notifyhub/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateNotification(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(n *models.Notification)
		wantErr bool
	}{
		{"valid published", func(n *models.Notification) {}, false},
		{"valid draft", func(n *models.Notification) { n.Status = models.StatusDraft }, false},
		{"empty recipient list is legal", func(n *models.Notification) { n.UserIDs = nil }, false},
		{"empty content is legal", func(n *models.Notification) { n.Content = "" }, false},
		{"missing title", func(n *models.Notification) { n.Title = "" }, true},
		{"title too long", func(n *models.Notification) { n.Title = strings.Repeat("x", 201) }, true},
		{"unknown status", func(n *models.Notification) { n.Status = "9" }, true},
		{"non-positive user id", func(n *models.Notification) { n.UserIDs = []int64{0} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &models.Notification{
				Title:   "Maintenance window",
				Content: "Service down at 22:00",
				Type:    "2",
				Status:  models.StatusPublished,
				UserIDs: []int64{1, 2},
			}
			tt.mutate(n)

			err := ValidateNotification(n)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

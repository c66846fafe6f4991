package services

import (
	"context"
	"testing"

	"procurement_flow_go/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailNotifierTestMode(t *testing.T) {
	n := NewEmailNotifier(&config.Config{EmailTestMode: true, EmailFrom: "noreply@agency.gov.ph", EmailFromName: "BAC"})

	assert.NoError(t, n.Send(context.Background(), "bac@agency.gov.ph", "Reminder", "Bid opening tomorrow"))
	assert.Error(t, n.Send(context.Background(), " ", "Reminder", "body"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, n.Send(ctx, "bac@agency.gov.ph", "Reminder", "body"))
}

func TestEmailNotifierWithoutKey(t *testing.T) {
	n := NewEmailNotifier(&config.Config{EmailTestMode: false})
	err := n.Send(context.Background(), "bac@agency.gov.ph", "Reminder", "body")
	assert.EqualError(t, err, "RESEND_API_KEY not configured")
}

func TestRenderNoticeEscapesContent(t *testing.T) {
	html, err := renderNotice("Delivery due", "Line one\n<script>x</script>")
	require.NoError(t, err)
	assert.Contains(t, html, "<h2>Delivery due</h2>")
	assert.Contains(t, html, "<p>Line one</p>")
	assert.NotContains(t, html, "<script>")
}

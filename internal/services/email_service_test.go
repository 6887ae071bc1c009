package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSESClient struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSESClient) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestAWSSESEmailService_SendGroupInvite(t *testing.T) {
	client := &fakeSESClient{}
	svc := newSESEmailService(client, "noreply@tripshare.app", "https://tripshare.app", slog.Default())

	err := svc.SendGroupInvite(context.Background(), GroupInvitation{
		To:          "friend@example.com",
		GroupName:   "Lisbon <2026>",
		InviterName: "Ana",
		Token:       "tok123",
		ExpiresAt:   time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	require.NotNil(t, client.input)
	assert.Equal(t, "noreply@tripshare.app", aws.ToString(client.input.Source))
	assert.Equal(t, []string{"friend@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "Join Lisbon <2026> on TripShare", aws.ToString(client.input.Message.Subject.Data))

	html := aws.ToString(client.input.Message.Body.Html.Data)
	assert.Contains(t, html, "https://tripshare.app/invites/tok123")
	assert.Contains(t, html, "Lisbon &lt;2026&gt;")
	assert.NotContains(t, html, "Lisbon <2026>")
	assert.Contains(t, html, "May 4, 2026")

	text := aws.ToString(client.input.Message.Body.Text.Data)
	assert.Contains(t, text, "https://tripshare.app/invites/tok123")
	assert.Contains(t, text, "Ana invited you")
}

func TestAWSSESEmailService_SendGroupInvite_Error(t *testing.T) {
	client := &fakeSESClient{err: errors.New("throttled")}
	svc := newSESEmailService(client, "noreply@tripshare.app", "https://tripshare.app", slog.Default())

	err := svc.SendGroupInvite(context.Background(), GroupInvitation{To: "friend@example.com", Token: "t"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestAWSSESEmailService_InviteLink(t *testing.T) {
	svc := newSESEmailService(&fakeSESClient{}, "a@b.c", "http://localhost:3000", slog.Default())

	assert.Equal(t, "http://localhost:3000/invites/abc", svc.InviteLink("abc"))
}

// internal/common/aws/aws_test.go
package aws

import (
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
)

func TestEmailInput(t *testing.T) {
	in := EmailInput("deals@equireal.com", "tenant@example.com", "Your proposal", "plain", "<p>html</p>")
	assert.Equal(t, "deals@equireal.com", aws.ToString(in.Source))
	assert.Equal(t, []string{"tenant@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Your proposal", aws.ToString(in.Message.Subject.Data))
	assert.Equal(t, "plain", aws.ToString(in.Message.Body.Text.Data))
	assert.Equal(t, "<p>html</p>", aws.ToString(in.Message.Body.Html.Data))

	textOnly := EmailInput("a@b.co", "c@d.co", "s", "plain", "")
	assert.Nil(t, textOnly.Message.Body.Html)
}

func TestSMSInput_Truncates(t *testing.T) {
	short := SMSInput("+15551234567", "Deal EQR-1A2B3C4D approved")
	assert.Equal(t, "Deal EQR-1A2B3C4D approved", aws.ToString(short.Message))
	assert.Equal(t, "Transactional", aws.ToString(short.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))

	long := SMSInput("+15551234567", strings.Repeat("x", 300))
	assert.Len(t, []rune(aws.ToString(long.Message)), smsMaxLength)
}

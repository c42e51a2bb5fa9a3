package mailer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	sent []string
	fail map[string]bool
}

func (f *fakeMailer) Send(subject, body string, recipients []string) error {
	for _, r := range recipients {
		if f.fail[r] {
			return fmt.Errorf("delivery failed for %s", r)
		}
		f.sent = append(f.sent, r)
	}
	return nil
}

func TestNotifyRequestCompletedSendsToAllSubscribers(t *testing.T) {
	m := &fakeMailer{fail: map[string]bool{}}
	errs := NotifyRequestCompleted(m, "req1", []string{"a@example.org", "b@example.org"})
	assert.Empty(t, errs)
	assert.ElementsMatch(t, []string{"a@example.org", "b@example.org"}, m.sent)
}

func TestNotifyRequestCompletedCollectsPerRecipientFailures(t *testing.T) {
	m := &fakeMailer{fail: map[string]bool{"bad@example.org": true}}
	errs := NotifyRequestCompleted(m, "req1", []string{"good@example.org", "bad@example.org"})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "bad@example.org")
	assert.Equal(t, []string{"good@example.org"}, m.sent)
}

func TestNotifyRequestCompletedNoSubscribersIsNoOp(t *testing.T) {
	m := &fakeMailer{fail: map[string]bool{}}
	errs := NotifyRequestCompleted(m, "req1", nil)
	assert.Empty(t, errs)
	assert.Empty(t, m.sent)
}

package channel

import (
	"context"
	"testing"

	"converso-platform/internal/conversation"
)

func TestIntakeScriptsCompile(t *testing.T) {
	if intakeAcquireScript == nil || intakeReleaseScript == nil {
		t.Fatalf("intake scripts must be initialized")
	}
}

func TestIntakeKeyScopesByChannelAndWorkspace(t *testing.T) {
	a := intakeKey(conversation.ChannelWhatsapp, "ws-1")
	b := intakeKey(conversation.ChannelPhone, "ws-1")
	c := intakeKey(conversation.ChannelWhatsapp, "ws-2")
	if a == b || a == c {
		t.Fatalf("intake keys must not collide: %q %q %q", a, b, c)
	}
}

func TestAcquireIntakeSlot_ValidatesInputs(t *testing.T) {
	ctx := context.Background()
	if _, err := acquireIntakeSlot(ctx, nil, conversation.ChannelWhatsapp, "ws-1", 5); err == nil {
		t.Fatalf("nil client must error")
	}
	if err := releaseIntakeSlot(ctx, nil, conversation.ChannelWhatsapp, "ws-1"); err == nil {
		t.Fatalf("nil client must error")
	}
}

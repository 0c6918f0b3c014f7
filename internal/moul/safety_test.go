package moul

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafety_KIMessageChatOnly(t *testing.T) {
	chat := &KIMessage{Command: KIChatMessage, Flags: KIAdminMsg | KIPrivateMsg}
	assert.True(t, chat.MakeSafeForNet())
	assert.Zero(t, chat.Flags&KIAdminMsg, "admin flag must be stripped before forward")
	assert.NotZero(t, chat.Flags&KIPrivateMsg, "other flags survive")

	notChat := &KIMessage{Command: 9}
	assert.False(t, notChat.MakeSafeForNet())
}

func TestSafety_ForbiddenTypes(t *testing.T) {
	forbidden := []Creatable{
		&BackdoorMsg{},
		&AvTaskMsg{},
		&AvPushBrainMsg{},
		&AvPopBrainMsg{},
		&InputEventMsg{},
		&ControlEventMsg{},
		&WarpMsg{},
		&LinkToAgeMsg{},
		&LinkingMgrMsg{},
	}
	for _, msg := range forbidden {
		assert.False(t, msg.MakeSafeForNet(), "%T must never be forwardable", msg)
	}
}

func TestSafety_DefaultAllowed(t *testing.T) {
	allowed := []Creatable{
		&NotifyMsg{},
		&EnableMsg{},
		&ClimbMsg{},
		&ClothingMsg{},
		&BulletMsg{},
		&AvBrainGenericMsg{},
		&AvTaskSeekDoneMsg{},
		&LoadCloneMsg{},
	}
	for _, msg := range allowed {
		assert.True(t, msg.MakeSafeForNet(), "%T should pass by default", msg)
	}
}

func TestSafety_AvBrainGenericNestedMessages(t *testing.T) {
	brain := &AvBrainGeneric{}
	assert.True(t, brain.MakeSafeForNet())

	brain.StartMessage = &NotifyMsg{}
	assert.False(t, brain.MakeSafeForNet(), "start message makes the brain unsafe")

	brain.StartMessage = nil
	brain.EndMessage = &NotifyMsg{}
	assert.False(t, brain.MakeSafeForNet(), "end message makes the brain unsafe")
}

func TestSafety_AvCoopDefersToCoordinator(t *testing.T) {
	msg := &AvCoopMsg{}
	assert.True(t, msg.MakeSafeForNet(), "no coordinator is safe")

	msg.Coordinator = &CoopCoordinator{}
	assert.True(t, msg.MakeSafeForNet(), "coordinator without accept message is safe")

	msg.Coordinator.AcceptMsg = &KIMessage{Command: KIChatMessage}
	assert.True(t, msg.MakeSafeForNet(), "safe accept message passes")

	msg.Coordinator.AcceptMsg = &BackdoorMsg{}
	assert.False(t, msg.MakeSafeForNet(), "unsafe accept message is rejected")
}

func TestSafety_CallbacksRecurse(t *testing.T) {
	msg := &AnimCmdMsg{}
	assert.True(t, msg.MakeSafeForNet())

	msg.Callbacks = []Creatable{&NotifyMsg{}, &KIMessage{Command: KIChatMessage}}
	assert.True(t, msg.MakeSafeForNet())

	msg.Callbacks = append(msg.Callbacks, &BackdoorMsg{})
	assert.False(t, msg.MakeSafeForNet(), "one bad callback poisons the message")
}

func TestSafety_AdminMsgCannotReachClients(t *testing.T) {
	// Every crafted path that could deliver a KIMessage with the admin
	// flag set either fails the filter or has the flag cleared.
	direct := &KIMessage{Command: KIChatMessage, Flags: KIAdminMsg}
	assert.True(t, direct.MakeSafeForNet())
	assert.Zero(t, direct.Flags&KIAdminMsg)

	viaCallback := &AnimCmdMsg{}
	nested := &KIMessage{Command: KIChatMessage, Flags: KIAdminMsg}
	viaCallback.Callbacks = []Creatable{nested}
	assert.True(t, viaCallback.MakeSafeForNet())
	assert.Zero(t, nested.Flags&KIAdminMsg)

	viaCoop := &AvCoopMsg{Coordinator: &CoopCoordinator{}}
	nested2 := &KIMessage{Command: KIChatMessage, Flags: KIAdminMsg}
	viaCoop.Coordinator.AcceptMsg = nested2
	assert.True(t, viaCoop.MakeSafeForNet())
	assert.Zero(t, nested2.Flags&KIAdminMsg)
}

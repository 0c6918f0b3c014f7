package moul

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udisondev/moulgo/internal/wire"
)

func roundTrip(t *testing.T, msg Creatable) Creatable {
	t.Helper()
	s := wire.NewBufferStream(256)
	WriteCreatable(s, msg)
	require.NoError(t, s.Seek(0, wire.SeekSet))
	back, err := ReadCreatable(s)
	require.NoError(t, err)
	require.True(t, s.AtEOF(), "stream not fully consumed for %T", msg)
	return back
}

func TestAvSeekMsg_RoundTrip(t *testing.T) {
	msg := &AvSeekMsg{}
	msg.Task = &AvAnimTask{AnimName: "Walk", TargetBlend: 1, Start: true}
	point := NewUoid()
	point.Name = "SeekPoint01"
	point.ObjType = 2
	msg.SeekPoint = KeyFromUoid(point)
	msg.TargetPos = wire.Vector3{X: 1, Y: 2, Z: 3}
	msg.TargetLook = wire.Vector3{X: 0, Y: 1, Z: 0}
	msg.Duration = 2.5
	msg.SmartSeek = true
	msg.AnimName = "SeekAnim"
	msg.AlignType = 1
	msg.Flags = 0x04

	back := roundTrip(t, msg).(*AvSeekMsg)
	assert.Equal(t, "SeekPoint01", back.SeekPoint.Uoid().Name)
	assert.Equal(t, msg.TargetPos, back.TargetPos)
	assert.Equal(t, msg.Duration, back.Duration)
	assert.True(t, back.SmartSeek)
	assert.Equal(t, "SeekAnim", back.AnimName)

	task, ok := back.Task.(*AvAnimTask)
	require.True(t, ok, "task is %T", back.Task)
	assert.Equal(t, "Walk", task.AnimName)
	assert.True(t, task.Start)
}

func TestAvSeekMsg_NullSeekPointSkipsVectors(t *testing.T) {
	msg := &AvSeekMsg{}
	msg.TargetPos = wire.Vector3{X: 99} // must NOT appear on the wire

	back := roundTrip(t, msg).(*AvSeekMsg)
	assert.True(t, back.SeekPoint.IsNull())
	assert.Zero(t, back.TargetPos.X)
}

func TestAvPushBrainMsg_RoundTrip(t *testing.T) {
	msg := &AvPushBrainMsg{}
	msg.Brain = &AvBrainHuman{IsCustomAvatar: true}

	back := roundTrip(t, msg).(*AvPushBrainMsg)
	brain, ok := back.Brain.(*AvBrainHuman)
	require.True(t, ok, "brain is %T", back.Brain)
	assert.True(t, brain.IsCustomAvatar)
}

func TestAvBrainGeneric_RoundTrip(t *testing.T) {
	brain := &AvBrainGeneric{}
	brain.Stages = []*AnimStage{{
		AnimName:  "SitDown",
		Loops:     1,
		DoAdvance: true,
		AdvanceTo: 2,
		LocalTime: 0.5,
		Length:    3.5,
		CurLoop:   1,
		Attached:  true,
	}}
	brain.CurStage = 0
	brain.BrainType = 4
	brain.Mode = 2
	brain.Forward = true
	brain.FadeIn = 1.0
	brain.FadeOut = 2.0

	s := wire.NewBufferStream(256)
	WriteCreatable(s, brain)
	require.NoError(t, s.Seek(0, wire.SeekSet))
	obj, err := ReadCreatable(s)
	require.NoError(t, err)
	back := obj.(*AvBrainGeneric)

	require.Len(t, back.Stages, 1)
	assert.Equal(t, "SitDown", back.Stages[0].AnimName)
	assert.Equal(t, float32(0.5), back.Stages[0].LocalTime)
	assert.True(t, back.Stages[0].Attached)
	assert.Equal(t, uint32(4), back.BrainType)
	assert.True(t, back.Forward)
	assert.Nil(t, back.StartMessage)
	assert.Nil(t, back.EndMessage)
}

func TestLoadAvatarMsg_RoundTrip(t *testing.T) {
	msg := &LoadAvatarMsg{}
	cloneKey := NewUoid()
	cloneKey.Name = "Avatar07"
	msg.CloneKey = KeyFromUoid(cloneKey)
	msg.OriginPlayerID = 77
	msg.ValidMsg = true
	msg.IsLoading = true
	msg.IsPlayer = true
	msg.UserString = "linking in"

	back := roundTrip(t, msg).(*LoadAvatarMsg)
	assert.Equal(t, "Avatar07", back.CloneKey.Uoid().Name)
	assert.EqualValues(t, 77, back.OriginPlayerID)
	assert.True(t, back.IsPlayer)
	assert.Equal(t, "linking in", back.UserString)
	assert.Nil(t, back.TriggerMsg)
	assert.Nil(t, back.InitTask)
}

func TestNotifyMsg_RoundTrip(t *testing.T) {
	msg := &NotifyMsg{}
	msg.NotifyType = 0 // activator notification
	msg.State = 1.0
	msg.ID = 9
	picker := NewUoid()
	picker.Name = "Picker"
	msg.Events = []*EventData{
		{EventType: EvtPicked, First: KeyFromUoid(picker), Enabled: true,
			HitPoint: wire.Vector3{X: 5}},
		{EventType: EvtActivate, Active: true, Activate: true},
	}

	back := roundTrip(t, msg).(*NotifyMsg)
	require.Len(t, back.Events, 2)
	assert.Equal(t, EvtPicked, back.Events[0].EventType)
	assert.Equal(t, "Picker", back.Events[0].First.Uoid().Name)
	assert.EqualValues(t, 5, back.Events[0].HitPoint.X)
	assert.True(t, back.Events[1].Activate)
}

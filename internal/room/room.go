package room

import "context"

type TrackKind string

const (
	TrackKindAudio TrackKind = "audio"
	TrackKindVideo TrackKind = "video"
)

type TrackSource string

const (
	TrackSourceUnknown          TrackSource = "unknown"
	TrackSourceMicrophone       TrackSource = "microphone"
	TrackSourceCamera           TrackSource = "camera"
	TrackSourceScreenShare      TrackSource = "screen_share"
	TrackSourceScreenShareAudio TrackSource = "screen_share_audio"
)

// AudioStream yields encoded Opus packets until the track ends.
type AudioStream interface {
	ReadPacket() ([]byte, error)
}

type Track struct {
	SID    string
	Kind   TrackKind
	Source TrackSource
	// Audio is set for subscribed audio tracks only.
	Audio AudioStream
}

type Participant struct {
	Identity string
	Name     string
	// Tracks lists the tracks already subscribed when the event was produced.
	Tracks []Track
}

// EventHandler is the closed set of room events a session reacts to.
type EventHandler interface {
	OnParticipantConnected(p Participant)
	OnParticipantDisconnected(p Participant)
	OnTrackSubscribed(track Track, p Participant)
	OnTrackUnsubscribed(track Track, p Participant)
	OnDataReceived(data []byte, senderIdentity string)
}

type SubscribePolicy struct {
	Audio       bool
	ScreenShare bool
}

func (p SubscribePolicy) Allows(kind TrackKind, source TrackSource) bool {
	if kind == TrackKindAudio {
		return p.Audio
	}
	return p.ScreenShare && source == TrackSourceScreenShare
}

type JoinOptions struct {
	RoomName  string
	Identity  string
	Subscribe SubscribePolicy
}

type Connection interface {
	RoomName() string
	// Done is closed once the transport reports the agent left the room.
	Done() <-chan struct{}
	Disconnect()
}

type Client interface {
	JoinRoom(ctx context.Context, opts JoinOptions, handler EventHandler) (Connection, error)
}

type LifecycleEventKind string

const (
	RoomStarted  LifecycleEventKind = "room_started"
	RoomFinished LifecycleEventKind = "room_finished"
)

type LifecycleEvent struct {
	Kind     LifecycleEventKind
	RoomName string
}

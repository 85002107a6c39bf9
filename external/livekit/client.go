package livekit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Houssemalou/lingua-hub/internal/room"
	lkproto "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
)

type ClientConfig struct {
	URL       string
	APIKey    string
	APISecret string
}

// Client joins LiveKit rooms as a hidden, receive-only participant.
type Client struct {
	cfg ClientConfig
}

func NewClient(cfg ClientConfig) room.Client {
	return &Client{cfg: cfg}
}

type connection struct {
	name    string
	handler room.EventHandler
	policy  room.SubscribePolicy

	mu   sync.Mutex
	room *lksdk.Room
	done chan struct{}
	once sync.Once
}

func (c *connection) RoomName() string      { return c.name }
func (c *connection) Done() <-chan struct{} { return c.done }

func (c *connection) Disconnect() {
	c.mu.Lock()
	r := c.room
	c.mu.Unlock()
	if r != nil {
		r.Disconnect()
	}
	c.markDone()
}

func (c *connection) markDone() {
	c.once.Do(func() { close(c.done) })
}

func (cl *Client) JoinRoom(ctx context.Context, opts room.JoinOptions, handler room.EventHandler) (room.Connection, error) {
	conn := &connection{
		name:    opts.RoomName,
		handler: handler,
		policy:  opts.Subscribe,
		done:    make(chan struct{}),
	}
	cb := &lksdk.RoomCallback{
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackSubscribed:   conn.onTrackSubscribed,
			OnTrackUnsubscribed: conn.onTrackUnsubscribed,
			OnTrackPublished:    conn.onTrackPublished,
			OnDataPacket:        conn.onDataPacket,
		},
		OnParticipantConnected: func(rp *lksdk.RemoteParticipant) {
			handler.OnParticipantConnected(toParticipant(rp))
			conn.subscribeExisting(rp)
		},
		OnParticipantDisconnected: func(rp *lksdk.RemoteParticipant) {
			handler.OnParticipantDisconnected(toParticipant(rp))
		},
		OnDisconnected: func() {
			slog.Info("livekit room disconnected", "room_id", opts.RoomName)
			conn.markDone()
		},
	}

	type joinResult struct {
		room *lksdk.Room
		err  error
	}
	resCh := make(chan joinResult, 1)
	go func() {
		r, err := lksdk.ConnectToRoom(cl.cfg.URL, lksdk.ConnectInfo{
			APIKey:              cl.cfg.APIKey,
			APISecret:           cl.cfg.APISecret,
			RoomName:            opts.RoomName,
			ParticipantIdentity: opts.Identity,
		}, cb, lksdk.WithAutoSubscribe(false))
		resCh <- joinResult{room: r, err: err}
	}()

	var r *lksdk.Room
	select {
	case res := <-resCh:
		if res.err != nil {
			return nil, fmt.Errorf("connect to livekit room: %w", res.err)
		}
		r = res.room
	case <-ctx.Done():
		go func() {
			if res := <-resCh; res.room != nil {
				res.room.Disconnect()
			}
		}()
		return nil, ctx.Err()
	}

	conn.mu.Lock()
	conn.room = r
	conn.mu.Unlock()
	slog.Info("joined livekit room", "room_id", opts.RoomName, "identity", opts.Identity)

	// Participants already present are replayed as joins.
	for _, rp := range r.GetRemoteParticipants() {
		handler.OnParticipantConnected(toParticipant(rp))
		conn.subscribeExisting(rp)
	}
	return conn, nil
}

func (c *connection) subscribeExisting(rp *lksdk.RemoteParticipant) {
	for _, pub := range rp.TrackPublications() {
		if remote, ok := pub.(*lksdk.RemoteTrackPublication); ok {
			c.onTrackPublished(remote, rp)
		}
	}
}

func (c *connection) onTrackPublished(pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
	kind, source := trackKind(pub.Kind()), trackSource(pub.Source())
	if !c.policy.Allows(kind, source) {
		slog.Debug("skipping track by subscribe policy", "room_id", c.name, "participant", rp.Identity(), "kind", kind, "source", source)
		return
	}
	if err := pub.SetSubscribed(true); err != nil {
		slog.Error("failed to subscribe track", "error", err, "room_id", c.name, "participant", rp.Identity(), "track_sid", pub.SID())
	}
}

func (c *connection) onTrackSubscribed(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
	t := room.Track{
		SID:    pub.SID(),
		Kind:   trackKind(pub.Kind()),
		Source: trackSource(pub.Source()),
	}
	if t.Kind == room.TrackKindAudio {
		t.Audio = &rtpAudioStream{track: track}
	} else {
		// The payload is never used but an unread track backs up the receiver.
		go discardRTP(track)
	}
	c.handler.OnTrackSubscribed(t, toParticipant(rp))
}

func (c *connection) onTrackUnsubscribed(_ *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
	c.handler.OnTrackUnsubscribed(room.Track{
		SID:    pub.SID(),
		Kind:   trackKind(pub.Kind()),
		Source: trackSource(pub.Source()),
	}, toParticipant(rp))
}

func (c *connection) onDataPacket(data lksdk.DataPacket, params lksdk.DataReceiveParams) {
	pkt, ok := data.(*lksdk.UserDataPacket)
	if !ok {
		return
	}
	c.handler.OnDataReceived(pkt.Payload, params.SenderIdentity)
}

func toParticipant(rp *lksdk.RemoteParticipant) room.Participant {
	return room.Participant{Identity: rp.Identity(), Name: rp.Name()}
}

func trackKind(k lksdk.TrackKind) room.TrackKind {
	if k == lksdk.TrackKindVideo {
		return room.TrackKindVideo
	}
	return room.TrackKindAudio
}

func trackSource(s lkproto.TrackSource) room.TrackSource {
	switch s {
	case lkproto.TrackSource_MICROPHONE:
		return room.TrackSourceMicrophone
	case lkproto.TrackSource_CAMERA:
		return room.TrackSourceCamera
	case lkproto.TrackSource_SCREEN_SHARE:
		return room.TrackSourceScreenShare
	case lkproto.TrackSource_SCREEN_SHARE_AUDIO:
		return room.TrackSourceScreenShareAudio
	default:
		return room.TrackSourceUnknown
	}
}

// rtpAudioStream exposes the Opus payload of each RTP packet.
type rtpAudioStream struct {
	track *webrtc.TrackRemote
}

func (s *rtpAudioStream) ReadPacket() ([]byte, error) {
	for {
		pkt, _, err := s.track.ReadRTP()
		if err != nil {
			return nil, err
		}
		if len(pkt.Payload) > 0 {
			return pkt.Payload, nil
		}
	}
}

func discardRTP(track *webrtc.TrackRemote) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := track.Read(buf); err != nil {
			return
		}
	}
}

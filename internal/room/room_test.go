package room

import "testing"

func TestSubscribePolicy_AudioOnly(t *testing.T) {
	audioOnly := SubscribePolicy{Audio: true}
	if !audioOnly.Allows(TrackKindAudio, TrackSourceMicrophone) {
		t.Fatal("expected microphone audio to be allowed")
	}
	if audioOnly.Allows(TrackKindVideo, TrackSourceScreenShare) {
		t.Fatal("expected screen share video to be rejected in audio only mode")
	}
	if audioOnly.Allows(TrackKindVideo, TrackSourceCamera) {
		t.Fatal("expected camera video to be rejected")
	}
}

func TestSubscribePolicy_ScreenShare(t *testing.T) {
	p := SubscribePolicy{Audio: true, ScreenShare: true}
	if !p.Allows(TrackKindVideo, TrackSourceScreenShare) {
		t.Fatal("expected screen share video to be allowed")
	}
	if p.Allows(TrackKindVideo, TrackSourceCamera) {
		t.Fatal("expected camera video to be rejected")
	}
}

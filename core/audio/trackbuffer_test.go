package audio

import "testing"

func TestTrackBufferReadAdvancesOffsetsAcrossTracks(t *testing.T) {
	buffer := NewTrackBuffer()
	buffer.Add("item_a", []int16{1, 2, 3})
	buffer.Add("item_b", []int16{4, 5})

	out := make([]int16, 4)
	if n := buffer.Read(out); n != 4 {
		t.Fatalf("expected 4 samples read, got %d", n)
	}
	if out[0] != 1 || out[3] != 4 {
		t.Fatalf("expected samples in arrival order, got %v", out)
	}

	offset, ok := buffer.Interrupt()
	if !ok {
		t.Fatalf("expected a track to be playing")
	}
	if offset.TrackID != "item_b" || offset.Offset != 1 {
		t.Fatalf("expected item_b at offset 1, got %+v", offset)
	}
}

func TestTrackBufferReadPadsWithSilence(t *testing.T) {
	buffer := NewTrackBuffer()
	buffer.Add("item", []int16{7})

	out := []int16{9, 9, 9}
	if n := buffer.Read(out); n != 1 {
		t.Fatalf("expected 1 sample read, got %d", n)
	}
	if out[1] != 0 || out[2] != 0 {
		t.Fatalf("expected silence padding, got %v", out)
	}
}

func TestTrackBufferInterruptDropsLateAudioForTrack(t *testing.T) {
	buffer := NewTrackBuffer()
	buffer.Add("item", make([]int16, 240))
	buffer.Read(make([]int16, 120))

	offset, ok := buffer.Interrupt()
	if !ok || offset.Offset != 120 {
		t.Fatalf("expected offset 120, got %+v (ok=%t)", offset, ok)
	}
	if buffer.Pending() != 0 {
		t.Fatalf("expected queue to be empty after interrupt, got %d", buffer.Pending())
	}
	if buffer.Add("item", []int16{1}) {
		t.Fatalf("expected audio for interrupted track to be dropped")
	}
	if !buffer.Add("other", []int16{1}) {
		t.Fatalf("expected audio for another track to be queued")
	}
}

func TestTrackBufferInterruptWithoutAudio(t *testing.T) {
	buffer := NewTrackBuffer()
	if _, ok := buffer.Interrupt(); ok {
		t.Fatalf("expected no track when nothing is queued")
	}
}

func TestTrackBufferClearForgetsInterruptedTracks(t *testing.T) {
	buffer := NewTrackBuffer()
	buffer.Add("item", []int16{1})
	buffer.Interrupt()
	buffer.Clear()

	if !buffer.Add("item", []int16{1}) {
		t.Fatalf("expected cleared buffer to accept audio for a previously interrupted track")
	}
}

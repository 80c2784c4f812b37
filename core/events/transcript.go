package events

import "github.com/deltamod3/aida-voice-agent/core/transcript"

const KindFragmentReceived Kind = "transcript.fragment_received"

type FragmentReceived struct {
	Base
	Fragment transcript.Fragment
}

func NewFragmentReceived(fragment transcript.Fragment) FragmentReceived {
	return FragmentReceived{Base: NewBase(KindFragmentReceived), Fragment: fragment}
}

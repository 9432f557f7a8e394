package domain

// CallSignal is one relayed call-negotiation message, named after the
// inbound event that carries it.
type CallSignal string

const (
	SignalRequest   CallSignal = "video-call-request"
	SignalAccepted  CallSignal = "video-call-accepted"
	SignalOffer     CallSignal = "video-offer"
	SignalAnswer    CallSignal = "video-answer"
	SignalCandidate CallSignal = "ice-candidate"
	SignalEnded     CallSignal = "video-call-ended"
)

// CallPhase models the lifecycle of a 1:1 call as the clients drive it.
// The relay itself stores no session state and forwards every signal
// unconditionally; the phase machine exists so that the expected sequences
// are written down and testable.
type CallPhase int

const (
	CallIdle CallPhase = iota
	CallRinging
	CallActive
	CallEnded
)

func (p CallPhase) String() string {
	switch p {
	case CallIdle:
		return "idle"
	case CallRinging:
		return "ringing"
	case CallActive:
		return "active"
	case CallEnded:
		return "ended"
	}
	return "unknown"
}

// Apply advances the phase by one signal. The second return value reports
// whether the transition is one the clients are expected to produce; an
// unexpected signal leaves the phase unchanged.
func (p CallPhase) Apply(s CallSignal) (CallPhase, bool) {
	switch p {
	case CallIdle:
		if s == SignalRequest {
			return CallRinging, true
		}
	case CallRinging:
		switch s {
		case SignalAccepted:
			return CallActive, true
		case SignalEnded:
			return CallEnded, true
		}
	case CallActive:
		switch s {
		case SignalOffer, SignalAnswer, SignalCandidate:
			// Negotiation and renegotiation stay in the active phase.
			return CallActive, true
		case SignalEnded:
			return CallEnded, true
		}
	case CallEnded:
	}
	return p, false
}

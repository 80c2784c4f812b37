package events

const (
	KindConnectRequested    Kind = "session.connect_requested"
	KindDisconnectRequested Kind = "session.disconnect_requested"
	KindSessionFailed       Kind = "session.failed"
	KindSessionDisconnected Kind = "session.disconnected"
)

// Source tells where a connect or disconnect request came from.
type Source string

const (
	SourceVoice   Source = "voice"
	SourceControl Source = "control"
	SourceStartup Source = "startup"
)

type ConnectRequested struct {
	Base
	Source Source
}

func NewConnectRequested(source Source) ConnectRequested {
	return ConnectRequested{Base: NewBase(KindConnectRequested), Source: source}
}

type DisconnectRequested struct {
	Base
	Source Source
}

func NewDisconnectRequested(source Source) DisconnectRequested {
	return DisconnectRequested{Base: NewBase(KindDisconnectRequested), Source: source}
}

type SessionFailed struct {
	Base
	Err error
}

func NewSessionFailed(err error) SessionFailed {
	return SessionFailed{Base: NewBase(KindSessionFailed), Err: err}
}

type SessionDisconnected struct {
	Base
}

func NewSessionDisconnected() SessionDisconnected {
	return SessionDisconnected{Base: NewBase(KindSessionDisconnected)}
}

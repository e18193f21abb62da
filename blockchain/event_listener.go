package blockchain

// EventListener is notified of every read served by a Store, method is the name of the accessor.
type EventListener interface {
	OnRead(method string)
}

type SelectiveListener struct {
	OnReadCb func(method string)
}

func (l *SelectiveListener) OnRead(method string) {
	if l.OnReadCb != nil {
		l.OnReadCb(method)
	}
}

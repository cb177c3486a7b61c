package registry

import (
	"github.com/grovetools/exportshell/errors"
	"github.com/grovetools/exportshell/pkg/process"
	"github.com/grovetools/exportshell/pkg/session"
)

// Registry is the application state shared by startup, shutdown and the UI
// accessor. Construct one per application run and pass it explicitly.
//
// The session and process slots are locked independently, so a UI read
// never waits on process termination and vice versa.
type Registry struct {
	session *Slot[session.Descriptor]
	process *Slot[process.Handle]
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		session: NewSlot[session.Descriptor]("session"),
		process: NewSlot[process.Handle]("child"),
	}
}

// PublishSession stores the descriptor the UI will read.
func (r *Registry) PublishSession(d session.Descriptor) error {
	return r.session.Publish(d)
}

// PublishProcess stores the supervised backend handle.
func (r *Registry) PublishProcess(h process.Handle) error {
	return r.process.Publish(h)
}

// TakeProcess removes the backend handle. It returns nil once the handle has
// already been taken or was never published.
func (r *Registry) TakeProcess() (process.Handle, error) {
	h, ok, err := r.process.Take()
	if err != nil || !ok {
		return nil, err
	}
	return h, nil
}

// Session returns a copy of the published descriptor. It never blocks waiting
// for startup: before publication it fails with NOT_INITIALIZED.
func (r *Registry) Session() (session.Descriptor, error) {
	d, ok, err := r.session.Get()
	if err != nil {
		return session.Descriptor{}, err
	}
	if !ok {
		return session.Descriptor{}, errors.NotInitialized()
	}
	return d, nil
}

var _ session.Source = (*Registry)(nil)

package comms

import "sync"

// Registry maps stable player identities to their current live connection.
// At most one connection is current per identity: registering a new one
// closes the connection it supersedes.
//
// We're using sync.Maps which are optimised for few writes but lots of reads.
type Registry struct {
	conns      sync.Map // identity -> Conn
	identities sync.Map // Conn -> identity
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register stores conn as the current connection for identity. A different
// previously stored connection is closed as a side effect.
func (r *Registry) Register(identity string, conn Conn) {
	prev, loaded := r.conns.Swap(identity, conn)
	r.identities.Store(conn, identity)
	if loaded && prev != conn {
		r.identities.Delete(prev)
		prev.(Conn).Close()
	}
}

// Lookup returns the current connection for identity.
func (r *Registry) Lookup(identity string) (Conn, bool) {
	v, ok := r.conns.Load(identity)
	if !ok {
		return nil, false
	}
	return v.(Conn), true
}

// ResolveIdentity is the reverse lookup, for transport-level close/error
// events that only carry the connection.
func (r *Registry) ResolveIdentity(conn Conn) (string, bool) {
	v, ok := r.identities.Load(conn)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Remove drops the mapping for identity, but only if conn is still the
// stored connection. This keeps a teardown of an old connection from
// removing the one that already superseded it.
func (r *Registry) Remove(identity string, conn Conn) bool {
	if !r.conns.CompareAndDelete(identity, conn) {
		return false
	}
	r.identities.Delete(conn)
	return true
}

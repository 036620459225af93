// Package pool provides a TTL-bounded object pool for expensive-to-build
// resources such as parsers, codecs, or client handles.
//
// Objects come from a user-supplied factory and are handed out as leases
// identified by UUID. Returned objects wait on an idle stack; Get reuses
// the most recently returned object, so rarely needed capacity cools off
// and is destroyed once it idles past the TTL:
//
//	p, err := pool.New(newParser, time.Minute,
//	    pool.WithDestroy(func(ps *Parser) { ps.Release() }),
//	)
//	lease, err := p.Get()
//	defer p.Put(lease)
//	lease.Object.Parse(input)
//
// The pool never blocks and has no upper bound on outstanding leases;
// backpressure, if needed, belongs to the caller.
package pool

package radiodns

import "context"

// Resolver looks up the directory record for a DAB bearer identity tuple.
// All four fields are uppercase hex strings without prefix.
//
// A nil record with a nil error means the directory holds nothing for this
// identity; errors cover transport failures and timeouts. Callers treat both
// outcomes as "no record" and never abort a run over them.
type Resolver interface {
	Lookup(ctx context.Context, gcc, eid, sid, scids string) (*Record, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, gcc, eid, sid, scids string) (*Record, error)

func (f ResolverFunc) Lookup(ctx context.Context, gcc, eid, sid, scids string) (*Record, error) {
	return f(ctx, gcc, eid, sid, scids)
}

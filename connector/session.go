package connector

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/teodevgroup/teo-mongodb-connector/dberrors"
	"github.com/teodevgroup/teo-mongodb-connector/keypath"
)

// OwnedSession is a shared, interior-mutable handle around a driver session
// (spec.md §4.1, C1). A mongo.Session is already safe to hand out repeatedly
// — unlike the Rust driver, the Go driver does not require a single `&mut`
// borrow per call — so OwnedSession's job is narrower than its Rust
// counterpart's raw-pointer trick: it exists purely to make the session a
// cloneable, shared value that every task inside one Transaction can reach,
// while keeping the "one call at a time" discipline an external invariant
// enforced by the host executor rather than a lock here (spec.md §5).
type OwnedSession struct {
	session mongo.Session
}

// NewOwnedSession takes ownership of a freshly started driver session.
func NewOwnedSession(session mongo.Session) *OwnedSession {
	return &OwnedSession{session: session}
}

// Context wraps ctx with this session so that every subsequent driver call
// made with the returned context is routed through it. Called fresh for each
// driver round trip, mirroring client_session()'s "valid for the duration of
// one driver call" contract.
func (s *OwnedSession) Context(ctx context.Context) mongo.SessionContext {
	return mongo.NewSessionContext(ctx, s.session)
}

func (s *OwnedSession) StartTransaction(ctx context.Context) error {
	if err := s.session.StartTransaction(); err != nil {
		return dberrors.UnknownDatabaseWriteError(keypath.Root(), err.Error())
	}
	return nil
}

func (s *OwnedSession) CommitTransaction(ctx context.Context) error {
	if err := s.session.CommitTransaction(ctx); err != nil {
		return dberrors.UnknownDatabaseWriteError(keypath.Root(), err.Error())
	}
	return nil
}

func (s *OwnedSession) AbortTransaction(ctx context.Context) error {
	if err := s.session.AbortTransaction(ctx); err != nil {
		return dberrors.UnknownDatabaseWriteError(keypath.Root(), err.Error())
	}
	return nil
}

// End releases the underlying driver session. The host query executor is
// documented to never issue two concurrent driver calls against the same
// session (spec.md §4.1, §5); this type does not itself serialize calls, only
// different Transactions' sessions are guaranteed independent.
func (s *OwnedSession) End(ctx context.Context) {
	s.session.EndSession(ctx)
}

// Package reconcile decides, given a local snapshot and the outcome of a
// remote fetch, which cart constitutes the working state.
//
// Policy: remote wins on content, local wins on availability. A successful
// remote read replaces local state entirely; a failed one leaves the local
// snapshot in charge unchanged. There is deliberately no three-way merge of
// quantities between a stale local cart and a stale remote cart: merge
// ambiguity is resolved by preferring the most recent explicit mutation's
// destination, never by summing divergent histories.
package reconcile

import "cartsync/internal/domain"

// Resolve returns the working cart and whether it is authoritative.
// fetchErr is the error (if any) from the remote fetch; local may be nil
// when the cache had nothing usable. Resolve never returns nil.
func Resolve(local, remote *domain.Cart, fetchErr error) (*domain.Cart, bool) {
	if fetchErr == nil {
		if remote == nil {
			return &domain.Cart{}, true
		}
		c := remote.Clone()
		return &c, true
	}
	if local == nil {
		return &domain.Cart{}, false
	}
	c := local.Clone()
	return &c, false
}

package postgres

import "dog-scout/internal/storage"

// NewStores wires every PostgreSQL-backed store onto one pool.
func NewStores(pool *Pool) storage.Stores {
	return storage.Stores{
		PairRaw: NewPairRawStore(pool),
		Signals: NewSignalStore(pool),
		Alerts:  NewAlertStore(pool),
		Jobs:    NewRecheckJobStore(pool),
		Results: NewRecheckResultStore(pool),
	}
}

package memory

import "dog-scout/internal/storage"

// NewStores returns a fresh set of in-memory stores.
func NewStores() storage.Stores {
	return storage.Stores{
		PairRaw: NewPairRawStore(),
		Signals: NewSignalStore(),
		Alerts:  NewAlertStore(),
		Jobs:    NewRecheckJobStore(),
		Results: NewRecheckResultStore(),
	}
}

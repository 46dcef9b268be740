package hybrid

import (
	"movieReco/business/collab"
	"movieReco/business/exploration"
	"movieReco/business/semantic"
)

// State groups the shared mutable components. It is built once in main and
// passed to the services and handlers that need it.
type State struct {
	Index  *semantic.Service
	Model  *collab.Model
	Ledger *exploration.Ledger
}

type Health struct {
	Index       semantic.Stats `json:"index"`
	Model       collab.Stats   `json:"model"`
	LedgerItems int            `json:"ledger_items"`
}

func (s *State) Health() Health {
	return Health{
		Index:       s.Index.Stats(),
		Model:       s.Model.Stats(),
		LedgerItems: s.Ledger.Len(),
	}
}

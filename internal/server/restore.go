package server

import (
	"log"

	"github.com/emark-cloud/caption-this/internal/db"
)

// Restore loads the durable record back into memory at startup: round
// results, XP balances in first-award order, and nicknames. Active
// rounds are transient by design and are not restored.
func (s *Server) Restore() error {
	if s.db == nil {
		return nil
	}

	var results []db.RoundResult
	if err := s.db.Order("id asc").Find(&results).Error; err != nil {
		return err
	}
	for _, record := range results {
		s.store.RestoreResult(&RoundResult{
			RoundID:         record.RoundID,
			Winner:          record.Winner,
			RunnerUp:        record.RunnerUp,
			WinnerCaption:   record.WinnerCaption,
			RunnerUpCaption: record.RunnerUpCaption,
			ResolvedAt:      record.ResolvedAt,
			SoloScore:       record.SoloScore,
		})
	}

	var balances []db.PlayerXP
	if err := s.db.Order("id asc").Find(&balances).Error; err != nil {
		return err
	}
	for _, record := range balances {
		s.ledger.Restore(record.Address, record.XP)
	}

	var nicknames []db.Nickname
	if err := s.db.Find(&nicknames).Error; err != nil {
		return err
	}
	for _, record := range nicknames {
		s.nicknames.Set(record.Address, record.Name)
	}

	log.Printf("state restored results=%d players=%d nicknames=%d",
		len(results), len(balances), len(nicknames))
	return nil
}

package server

import (
	"log"

	"github.com/emark-cloud/caption-this/internal/db"

	"gorm.io/gorm/clause"
)

// The in-memory store is authoritative; Postgres carries the durable
// record (results, XP, nicknames) across restarts. Writes here are best
// effort and never roll back the committed in-memory transaction.

func (s *Server) persistResolution(result *RoundResult, awards []Award) {
	if s.db == nil {
		return
	}

	record := db.RoundResult{
		RoundID:         result.RoundID,
		Winner:          result.Winner,
		RunnerUp:        result.RunnerUp,
		WinnerCaption:   result.WinnerCaption,
		RunnerUpCaption: result.RunnerUpCaption,
		SoloScore:       result.SoloScore,
		ResolvedAt:      result.ResolvedAt,
	}
	// Round ids may be reused after resolution; a later resolution under
	// the same id replaces the stored row, matching the in-memory map.
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "round_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"winner", "runner_up", "winner_caption", "runner_up_caption", "solo_score", "resolved_at", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		log.Printf("result persist failed round_id=%s: %v", result.RoundID, err)
	}

	for _, award := range awards {
		s.persistAward(award)
	}
}

func (s *Server) persistAward(award Award) {
	if s.db == nil {
		return
	}
	record := db.PlayerXP{Address: award.Address}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoNothing: true,
	}).Create(&record).Error; err != nil {
		log.Printf("xp row create failed address=%s: %v", award.Address, err)
		return
	}
	err := s.db.Model(&db.PlayerXP{}).
		Where("address = ?", award.Address).
		Update("xp", s.ledger.Balance(award.Address)).Error
	if err != nil {
		log.Printf("xp persist failed address=%s: %v", award.Address, err)
	}
}

func (s *Server) persistNickname(address, name string) {
	if s.db == nil {
		return
	}
	record := db.Nickname{Address: address, Name: name}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		log.Printf("nickname persist failed address=%s: %v", address, err)
	}
}

package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emark-cloud/caption-this/internal/auth"
)

type loginRequest struct {
	Address string `json:"address" binding:"required,address"`
}

type createRoundRequest struct {
	RoundID  string `json:"round_id" binding:"required,roundid"`
	ImageURL string `json:"image_url" binding:"required,imageurl"`
	Category string `json:"category" binding:"required,category"`
}

type submitCaptionRequest struct {
	Text string `json:"text" binding:"required,caption"`
}

type setNicknameRequest struct {
	Nickname string `json:"nickname" binding:"required,nickname"`
}

type nicknameLookupRequest struct {
	Addresses []string `json:"addresses" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err, "address is required")})
		return
	}
	token, err := auth.GenerateToken(req.Address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "address": req.Address})
}

func (s *Server) handleCreateRound(c *gin.Context) {
	address, ok := auth.PlayerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player address missing"})
		return
	}
	var req createRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err, "round_id, image_url and category are required")})
		return
	}

	round, err := s.store.CreateRound(req.RoundID, req.ImageURL, req.Category, address, int64(s.cfg.SubmissionDurationSeconds))
	if err != nil {
		s.writeStateError(c, err)
		return
	}
	log.Printf("round created round_id=%s category=%q creator=%s", round.ID, round.Category, address)
	s.publishEvent(eventRoundCreated, round.ID, map[string]any{
		"category": round.Category,
		"deadline": round.Deadline,
	})
	c.JSON(http.StatusCreated, gin.H{
		"round_id":            round.ID,
		"category":            round.Category,
		"created_at":          round.CreatedAt,
		"submission_deadline": round.Deadline,
	})
}

func (s *Server) handleSubmitCaption(c *gin.Context) {
	address, ok := auth.PlayerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player address missing"})
		return
	}
	var req submitCaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err, "text is required")})
		return
	}

	roundID := c.Param("id")
	caption, count, err := s.store.SubmitCaption(roundID, address, req.Text)
	if err != nil {
		s.writeStateError(c, err)
		return
	}
	s.publishEvent(eventCaptionSubmitted, roundID, map[string]any{
		"participant_count": count,
	})
	c.JSON(http.StatusCreated, gin.H{
		"round_id":          roundID,
		"submitted_at":      caption.SubmittedAt,
		"participant_count": count,
	})
}

func (s *Server) handleCancelRound(c *gin.Context) {
	address, ok := auth.PlayerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player address missing"})
		return
	}
	roundID := c.Param("id")
	if err := s.store.CancelRound(roundID, address); err != nil {
		s.writeStateError(c, err)
		return
	}
	log.Printf("round cancelled round_id=%s by=%s", roundID, address)
	s.publishEvent(eventRoundCancelled, roundID, nil)
	c.JSON(http.StatusOK, gin.H{"round_id": roundID, "cancelled": true})
}

func (s *Server) handleResolveRound(c *gin.Context) {
	roundID := c.Param("id")
	result, awards, err := s.ResolveRound(c.Request.Context(), roundID)
	if err != nil {
		s.writeResolveError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result": resultView(result),
		"awards": awards,
	})
}

func (s *Server) handleGetRound(c *gin.Context) {
	view, err := s.store.RoundView(c.Param("id"))
	if err != nil {
		s.writeStateError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleGetResult(c *gin.Context) {
	result, err := s.store.Result(c.Param("id"))
	if err != nil {
		s.writeStateError(c, err)
		return
	}
	c.JSON(http.StatusOK, resultView(result))
}

func (s *Server) handleActiveRounds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"active": s.store.ActiveRounds()})
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"leaderboard": s.ledger.Rank()})
}

func (s *Server) handlePlayerXP(c *gin.Context) {
	address := c.Param("address")
	c.JSON(http.StatusOK, gin.H{
		"address": address,
		"xp":      s.ledger.Balance(address),
	})
}

func (s *Server) handleGetNickname(c *gin.Context) {
	address := c.Param("address")
	c.JSON(http.StatusOK, gin.H{
		"address":  address,
		"nickname": s.nicknames.Get(address),
	})
}

func (s *Server) handleNicknameLookup(c *gin.Context) {
	var req nicknameLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "addresses list is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"nicknames": s.nicknames.GetMany(req.Addresses)})
}

func (s *Server) handleSetNickname(c *gin.Context) {
	address, ok := auth.PlayerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player address missing"})
		return
	}
	var req setNicknameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err, "nickname is required")})
		return
	}
	s.nicknames.Set(address, req.Nickname)
	s.persistNickname(address, req.Nickname)
	c.JSON(http.StatusOK, gin.H{"address": address, "nickname": req.Nickname})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"round_counter": s.store.Counter()})
}

// writeStateError maps store errors onto HTTP statuses.
func (s *Server) writeStateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrRoundNotFound), errors.Is(err, ErrResultNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrRoundExists), errors.Is(err, ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotCreator):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrDeadlinePassed), errors.Is(err, ErrWindowStillOpen), errors.Is(err, ErrNoParticipants):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// writeResolveError additionally maps oracle-contract failures; they are
// retryable, the round stays closed and unresolved.
func (s *Server) writeResolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidJudgeReply):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, ErrRoundChanged):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrRoundNotFound), errors.Is(err, ErrWindowStillOpen), errors.Is(err, ErrNoParticipants):
		s.writeStateError(c, err)
	default:
		log.Printf("resolve failed round_id=%s: %v", c.Param("id"), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

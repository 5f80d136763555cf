package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"tombola/internal/models"
	"tombola/internal/store"

	"github.com/google/logger"
)

// History records successful draws.
type History interface {
	RecordDraw(ctx context.Context, game string, lottery models.Lottery) (models.DrawRun, error)
	ListRuns(ctx context.Context, game string) ([]models.DrawRun, error)
}

// GameSession holds the loaded state of a single game.
type GameSession struct {
	Roster       *models.Roster
	Warnings     []models.MissingContactWarning
	Lottery      models.Lottery
	LastActivity time.Time
}

// LotteryService manages the sessions of every game below a games directory.
type LotteryService struct {
	mu       sync.Mutex
	sessions map[string]*GameSession // Key: game name

	games    *store.GameStore
	history  History
	attempts int
	newRand  func() *rand.Rand
	now      func() time.Time
}

// NewLotteryService creates and initializes a new LotteryService. history
// may be nil to disable draw history.
func NewLotteryService(games *store.GameStore, history History, attempts int) *LotteryService {
	if attempts < 1 {
		attempts = 1
	}
	return &LotteryService{
		sessions: make(map[string]*GameSession),
		games:    games,
		history:  history,
		attempts: attempts,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		now: time.Now,
	}
}

// RetryDraw runs Draw up to attempts times, reshuffling after each
// ErrNoSuitableCandidate. Any other error stops immediately.
func RetryDraw(roster *models.Roster, existing models.Lottery, attempts int, rng *rand.Rand) (models.Lottery, error) {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		var lottery models.Lottery
		lottery, err = Draw(roster, existing, rng)
		if err == nil {
			return lottery, nil
		}
		if !errors.Is(err, models.ErrNoSuitableCandidate) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", attempts, err)
}

// LoadRoster parses records and logs the players who cannot be notified.
func LoadRoster(records []models.PlayerRecord) (*models.Roster, []models.MissingContactWarning, error) {
	roster, warnings, err := ParseRoster(records)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		logger.Warningf("%v", w)
	}
	return roster, warnings, nil
}

// getSession returns the session of a game, loading it from disk if needed.
// The caller must hold s.mu.
func (s *LotteryService) getSession(game string) (*GameSession, error) {
	session, exists := s.sessions[game]
	if !exists {
		records, err := s.games.LoadPlayers(game)
		if err != nil {
			return nil, err
		}
		roster, warnings, err := LoadRoster(records)
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", game, err)
		}
		lottery, err := s.games.LoadLottery(game)
		if err != nil {
			return nil, err
		}

		session = &GameSession{
			Roster:   roster,
			Warnings: warnings,
			Lottery:  lottery,
		}
		s.sessions[game] = session
	}
	session.LastActivity = s.now()
	return session, nil
}

func (s *LotteryService) session(game string) (*GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSession(game)
}

// Games lists the known games.
func (s *LotteryService) Games() ([]string, error) {
	return s.games.Games()
}

// Players returns the participating players of a game sorted by display
// name, with the contact warnings raised while loading it.
func (s *LotteryService) Players(game string) ([]*models.Player, []models.MissingContactWarning, error) {
	session, err := s.session(game)
	if err != nil {
		return nil, nil, err
	}
	return session.Roster.SortedByDisplayName(), session.Warnings, nil
}

// Lottery returns a copy of the current lottery of a game.
func (s *LotteryService) Lottery(game string) (models.Lottery, error) {
	session, err := s.session(game)
	if err != nil {
		return nil, err
	}
	return session.Lottery.Clone(), nil
}

// Draw completes the lottery of a game, keeping every existing assignment,
// then saves it and records it in the history.
func (s *LotteryService) Draw(ctx context.Context, game string) (models.Lottery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(game)
	if err != nil {
		return nil, err
	}

	lottery, err := RetryDraw(session.Roster, session.Lottery, s.attempts, s.newRand())
	if err != nil {
		return nil, fmt.Errorf("draw %s: %w", game, err)
	}

	added := len(lottery) - len(session.Lottery)
	if added == 0 {
		logger.Infof("draw %s: lottery already complete", game)
		return lottery.Clone(), nil
	}

	if err := s.games.SaveLottery(game, lottery); err != nil {
		return nil, err
	}
	session.Lottery = lottery
	logger.Infof("draw %s: %d new assignments", game, added)

	if s.history != nil {
		run, err := s.history.RecordDraw(ctx, game, lottery)
		if err != nil {
			logger.Errorf("draw %s: recording history: %v", game, err)
		} else {
			logger.Infof("draw %s: recorded run %s", game, run.ID)
		}
	}

	return lottery.Clone(), nil
}

// Dump returns every player of a game, in input order, with the display
// name of their target when one was drawn.
func (s *LotteryService) Dump(game string) ([]models.PlayerSummary, error) {
	session, err := s.session(game)
	if err != nil {
		return nil, err
	}
	return Summarize(session.Roster, session.Lottery), nil
}

// Summarize annotates the players of roster with their target.
func Summarize(roster *models.Roster, lottery models.Lottery) []models.PlayerSummary {
	summaries := make([]models.PlayerSummary, 0, len(roster.Order))
	for _, id := range roster.Order {
		p := roster.Players[id]
		summary := models.PlayerSummary{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Email:       p.Email,
			Phone:       p.Phone,
			Participate: p.Participate,
		}
		if target, ok := roster.Get(lottery[id]); ok {
			summary.Target = target.DisplayName
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// History returns the recorded draws of a game, newest first.
func (s *LotteryService) History(ctx context.Context, game string) ([]models.DrawRun, error) {
	if _, err := s.games.Dir(game); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []models.DrawRun{}, nil
	}
	return s.history.ListRuns(ctx, game)
}

// CleanUpInactiveSessions removes sessions that have been inactive for
// longer than ttl.
func (s *LotteryService) CleanUpInactiveSessions(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for game, session := range s.sessions {
		if s.now().Sub(session.LastActivity) > ttl {
			logger.Infof("Evicting inactive session for game: %s", game)
			delete(s.sessions, game)
		}
	}
}

// ClearSession drops the cached state of a game so the next call reloads it
// from disk.
func (s *LotteryService) ClearSession(game string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, game)
	logger.Infof("Cleared session for game: %s", game)
}

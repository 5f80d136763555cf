// Package store persists games: the players and lottery files of a game
// directory, and the optional draw history database.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tombola/internal/models"

	"github.com/goccy/go-json"
)

const (
	PlayersFile = "players.json5"
	LotteryFile = "lottery.json"
)

// ReadPlayers reads and decodes a players file.
func ReadPlayers(path string) ([]models.PlayerRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read players: %w", err)
	}
	records, err := DecodePlayers(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadLottery reads a lottery file. A missing file is an empty lottery.
func ReadLottery(path string) (models.Lottery, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return models.Lottery{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lottery: %w", err)
	}

	lottery := models.Lottery{}
	if err := json.Unmarshal(data, &lottery); err != nil {
		return nil, fmt.Errorf("decode lottery %s: %w", path, err)
	}
	return lottery, nil
}

// WriteLottery replaces the lottery file at path. The content is written to
// a temporary file first so a crash never leaves a truncated lottery.
func WriteLottery(path string, lottery models.Lottery) error {
	data, err := json.MarshalIndent(lottery, "", "  ")
	if err != nil {
		return fmt.Errorf("encode lottery: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".lottery-*.json")
	if err != nil {
		return fmt.Errorf("write lottery: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write lottery: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write lottery: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write lottery: %w", err)
	}
	return nil
}

// GameStore resolves game names to directories below a root.
type GameStore struct {
	root string
}

// NewGameStore creates a GameStore rooted at dir.
func NewGameStore(dir string) *GameStore {
	return &GameStore{root: dir}
}

// Dir returns the directory of a game. Names are single path elements.
func (s *GameStore) Dir(game string) (string, error) {
	if game == "" || game == "." || game == ".." || strings.ContainsAny(game, `/\`) {
		return "", fmt.Errorf("%w: %q", models.ErrGameNotFound, game)
	}

	dir := filepath.Join(s.root, game)
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		return "", fmt.Errorf("%w: %q", models.ErrGameNotFound, game)
	}
	if err != nil {
		return "", err
	}
	return dir, nil
}

// Games lists the game directories holding a players file.
func (s *GameStore) Games() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	var games []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, entry.Name(), PlayersFile)); err == nil {
			games = append(games, entry.Name())
		}
	}
	sort.Strings(games)
	return games, nil
}

// LoadPlayers reads the players file of a game.
func (s *GameStore) LoadPlayers(game string) ([]models.PlayerRecord, error) {
	dir, err := s.Dir(game)
	if err != nil {
		return nil, err
	}
	return ReadPlayers(filepath.Join(dir, PlayersFile))
}

// LoadLottery reads the lottery of a game, empty when none was drawn yet.
func (s *GameStore) LoadLottery(game string) (models.Lottery, error) {
	dir, err := s.Dir(game)
	if err != nil {
		return nil, err
	}
	return ReadLottery(filepath.Join(dir, LotteryFile))
}

// SaveLottery writes the lottery of a game.
func (s *GameStore) SaveLottery(game string, lottery models.Lottery) error {
	dir, err := s.Dir(game)
	if err != nil {
		return err
	}
	return WriteLottery(filepath.Join(dir, LotteryFile), lottery)
}

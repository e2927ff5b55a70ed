// Package gameserver binds accounts and persisted player records to live
// world entities and routes text commands to them.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/account"
	"github.com/cory-johannsen/arena/internal/game/action"
	"github.com/cory-johannsen/arena/internal/game/command"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/player"
	"github.com/cory-johannsen/arena/internal/game/world"
)

// DefaultSpecies is assigned to new players who do not choose one.
const DefaultSpecies = "human"

var (
	// ErrInvalidUsername is returned for blank or whitespace-containing usernames.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrAlreadyOnline is returned when joining with a username that is in the world.
	ErrAlreadyOnline = errors.New("player already online")
	// ErrNotOnline is returned when addressing a username that is not in the world.
	ErrNotOnline = errors.New("player not online")
)

// JoinRequest identifies the account joining the world.
type JoinRequest struct {
	Username string
	Password string
	// Species is used only when the player record is created.
	Species string
}

// Service manages player sessions in a world.
// All methods are safe for concurrent use.
type Service struct {
	world    *world.World
	players  player.Repository
	accounts account.Repository
	commands *command.Registry
	logger   *zap.Logger

	mu     sync.Mutex
	online map[string]*entity.Entity
}

// NewService creates a Service. A nil logger is replaced with a no-op logger.
//
// Precondition: w, players and accounts must be non-nil.
func NewService(w *world.World, players player.Repository, accounts account.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		world:    w,
		players:  players,
		accounts: accounts,
		commands: command.DefaultRegistry(),
		logger:   logger,
		online:   make(map[string]*entity.Entity),
	}
}

// Join authenticates req, registering the account on first use, loads or
// creates the player record and adds the player to the world.
//
// Postcondition: Returns the player's view, or an error with no entity added.
func (s *Service) Join(ctx context.Context, req JoinRequest) (entity.View, error) {
	if req.Username == "" || strings.ContainsFunc(req.Username, unicode.IsSpace) {
		return entity.View{}, ErrInvalidUsername
	}
	s.mu.Lock()
	_, taken := s.online[req.Username]
	s.mu.Unlock()
	if taken {
		return entity.View{}, ErrAlreadyOnline
	}

	if err := s.authenticate(ctx, req.Username, req.Password); err != nil {
		return entity.View{}, err
	}
	rec, err := s.loadOrCreate(ctx, req)
	if err != nil {
		return entity.View{}, err
	}

	catalog := s.world.Catalog()
	sp, err := catalog.Species(rec.Species)
	if err != nil {
		return entity.View{}, fmt.Errorf("player %q: %w", rec.Username, err)
	}
	e := entity.NewPlayer(rec, catalog, sp)
	if !e.Alive() {
		e.RestoreHealth()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.online[req.Username]; taken {
		return entity.View{}, ErrAlreadyOnline
	}
	if err := s.world.Add(e); err != nil {
		return entity.View{}, fmt.Errorf("adding player: %w", err)
	}
	s.online[req.Username] = e

	s.logger.Info("player joined",
		zap.String("username", rec.Username),
		zap.String("species", rec.Species),
		zap.Int("level", rec.Level),
	)
	return s.snapshot(e), nil
}

func (s *Service) authenticate(ctx context.Context, username, password string) error {
	_, err := s.accounts.Authenticate(ctx, username, password)
	if errors.Is(err, account.ErrAccountNotFound) {
		_, err = s.accounts.Create(ctx, username, password)
		if err == nil {
			s.logger.Info("account registered", zap.String("username", username))
		}
	}
	if err != nil {
		return fmt.Errorf("authenticating %q: %w", username, err)
	}
	return nil
}

func (s *Service) loadOrCreate(ctx context.Context, req JoinRequest) (*player.Record, error) {
	rec, err := s.players.Load(ctx, req.Username)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, player.ErrPlayerNotFound) {
		return nil, fmt.Errorf("loading player %q: %w", req.Username, err)
	}
	species := req.Species
	if species == "" {
		species = DefaultSpecies
	}
	if _, err := s.world.Catalog().Species(species); err != nil {
		return nil, err
	}
	rec, err = s.players.Create(ctx, player.New(req.Username, species, action.DoNothingSerial, action.PunchSerial))
	if err != nil {
		return nil, fmt.Errorf("creating player %q: %w", req.Username, err)
	}
	return rec, nil
}

// Leave forfeits the player's battle, saves the record and removes the
// player from the world.
//
// Postcondition: The player is offline even when saving fails.
func (s *Service) Leave(ctx context.Context, username string) error {
	s.mu.Lock()
	e, ok := s.online[username]
	delete(s.online, username)
	s.mu.Unlock()
	if !ok {
		return ErrNotOnline
	}

	s.world.Remove(username)
	if err := s.players.Save(ctx, e.Record()); err != nil {
		s.logger.Warn("saving player on leave", zap.String("username", username), zap.Error(err))
		return fmt.Errorf("saving player %q: %w", username, err)
	}
	s.logger.Info("player left", zap.String("username", username), zap.Int("level", e.Level()))
	return nil
}

// Dispatch runs a text command for the player.
//
// Postcondition: Unknown commands and bad arguments yield command.Ignored, never an error.
func (s *Service) Dispatch(username, line string) (command.Result, error) {
	e, err := s.entity(username)
	if err != nil {
		return command.Result{}, err
	}
	var res command.Result
	s.world.Do(func() { res = s.commands.Execute(e, line) })
	return res, nil
}

// Snapshot returns the player's current view.
func (s *Service) Snapshot(username string) (entity.View, error) {
	e, err := s.entity(username)
	if err != nil {
		return entity.View{}, err
	}
	return s.snapshot(e), nil
}

func (s *Service) snapshot(e *entity.Entity) entity.View {
	var v entity.View
	s.world.Do(func() { v = e.View() })
	return v
}

// Hunt starts a battle between the player and a bot spawned at the player's
// position.
//
// Postcondition: Returns false if the player is dead or already fighting.
func (s *Service) Hunt(username string) (bool, error) {
	if _, err := s.entity(username); err != nil {
		return false, err
	}
	_, ok := s.world.Hunt(username)
	return ok, nil
}

// Challenge starts a battle between two online players.
//
// Postcondition: Returns false if either is dead or already fighting.
func (s *Service) Challenge(username, opponent string) (bool, error) {
	a, err := s.entity(username)
	if err != nil {
		return false, err
	}
	b, err := s.entity(opponent)
	if err != nil {
		return false, err
	}
	_, ok := s.world.Collide(a, b)
	return ok, nil
}

// Online returns the usernames of every online player, sorted.
func (s *Service) Online() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.online))
	for name := range s.online {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SaveAll persists every online player. Records are copied under the world
// lock and written outside it.
//
// Postcondition: Returns every save failure joined.
func (s *Service) SaveAll(ctx context.Context) error {
	s.mu.Lock()
	entities := make([]*entity.Entity, 0, len(s.online))
	for _, e := range s.online {
		entities = append(entities, e)
	}
	s.mu.Unlock()

	records := make([]*player.Record, 0, len(entities))
	s.world.Do(func() {
		for _, e := range entities {
			records = append(records, e.Record().Clone())
		}
	})

	var errs []error
	for _, rec := range records {
		if err := s.players.Save(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("saving player %q: %w", rec.Username, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("autosave failed", zap.Error(err))
		return err
	}
	s.logger.Debug("autosave complete", zap.Int("players", len(records)))
	return nil
}

func (s *Service) entity(username string) (*entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.online[username]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotOnline, username)
	}
	return e, nil
}

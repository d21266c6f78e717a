package httpapi

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"quiz-trainer/internal/quiz"
)

var (
	errInvalidPlayerID = errors.New("invalid player id")
	errTooManyPlayers  = errors.New("too many active players")
)

const defaultMaxPlayers = 1000

// player owns one controller and the event hub its stream subscribers read.
type player struct {
	id         uuid.UUID
	controller *quiz.Controller
	hub        *hub
	lastSeen   uint64
}

type API struct {
	catalog  *quiz.Catalog
	kv       quiz.KV
	opts     quiz.Options
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu         sync.Mutex
	players    map[uuid.UUID]*player
	maxPlayers int
	clock      uint64
}

// NewAPI serves one catalog to many players. opts is the template for each
// player's controller; its Cues and OnEvent are replaced per player.
func NewAPI(catalog *quiz.Catalog, kv quiz.KV, opts quiz.Options, log zerolog.Logger, allowedOrigins []string) *API {
	return &API{
		catalog:    catalog,
		kv:         kv,
		opts:       opts,
		log:        log.With().Str("component", "httpapi").Logger(),
		upgrader:   buildUpgrader(allowedOrigins),
		players:    make(map[uuid.UUID]*player),
		maxPlayers: defaultMaxPlayers,
	}
}

func (a *API) createPlayer(ctx context.Context) (*player, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.registerLocked(ctx, uuid.New())
}

// lookupPlayer returns the player for rawID. A well-formed id that is not
// registered yet gets a fresh controller backed by its persisted stats, so
// players survive a service restart and eviction.
func (a *API) lookupPlayer(ctx context.Context, rawID string) (*player, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, errInvalidPlayerID
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.players[id]; ok {
		a.clock++
		p.lastSeen = a.clock
		return p, nil
	}
	return a.registerLocked(ctx, id)
}

// registerLocked adds a player, first evicting the least recently used idle
// player when the registry is full. Evicted players lose nothing: their
// stats are persisted and they are restored on the next request.
func (a *API) registerLocked(ctx context.Context, id uuid.UUID) (*player, error) {
	if len(a.players) >= a.maxPlayers && !a.evictIdleLocked() {
		return nil, errTooManyPlayers
	}

	h := newHub()

	opts := a.opts
	opts.Cues = h
	opts.OnEvent = h.publishEvent
	opts.Logger = a.log.With().Str("player_id", id.String()).Logger()

	stats := quiz.NewStatStore(a.kv, quiz.StatKeysWithPrefix(playerKeyPrefix(id)), opts.Logger)
	p := &player{
		id:         id,
		controller: quiz.NewController(ctx, a.catalog, stats, opts),
		hub:        h,
	}
	a.clock++
	p.lastSeen = a.clock
	a.players[id] = p

	a.log.Info().Str("player_id", id.String()).Msg("Player registered")
	return p, nil
}

// evictIdleLocked drops the least recently used player that has no running
// session and no stream subscribers.
func (a *API) evictIdleLocked() bool {
	var oldest *player
	for _, p := range a.players {
		if p.hub.subscribers() > 0 {
			continue
		}
		if view, ok := p.controller.Session(); ok && !view.ResultVisible {
			continue
		}
		if oldest == nil || p.lastSeen < oldest.lastSeen {
			oldest = p
		}
	}
	if oldest == nil {
		return false
	}

	oldest.controller.Close()
	oldest.hub.close()
	delete(a.players, oldest.id)
	a.log.Info().Str("player_id", oldest.id.String()).Msg("Idle player evicted")
	return true
}

func playerKeyPrefix(id uuid.UUID) string {
	return "player:" + id.String() + ":"
}

// Close stops every player's timer and disconnects stream subscribers.
func (a *API) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, p := range a.players {
		p.controller.Close()
		p.hub.close()
	}
}

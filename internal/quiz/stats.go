package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const (
	StatsKey         = "quiz_stats"
	TotalAttemptsKey = "total_attempts"
)

// GroupStat is the cumulative record for one group across all completions.
type GroupStat struct {
	Correct    int `json:"correct"`
	Attempted  int `json:"attempted"`
	TimesTaken int `json:"timesTaken"`
}

// Average is the historical percentage of correct answers, 0 when nothing
// was attempted yet.
func (g GroupStat) Average() int {
	return Percentage(g.Correct, g.Attempted)
}

func (g GroupStat) merge(score, attempted int) GroupStat {
	return GroupStat{
		Correct:    g.Correct + score,
		Attempted:  g.Attempted + attempted,
		TimesTaken: g.TimesTaken + 1,
	}
}

type StatKeys struct {
	Stats         string
	TotalAttempts string
}

func DefaultStatKeys() StatKeys {
	return StatKeysWithPrefix("")
}

// StatKeysWithPrefix namespaces both stat entries, e.g. "player:<id>:".
func StatKeysWithPrefix(prefix string) StatKeys {
	return StatKeys{
		Stats:         prefix + StatsKey,
		TotalAttempts: prefix + TotalAttemptsKey,
	}
}

// StatStore reads and writes group statistics and the attempt counter
// through a KV.
type StatStore struct {
	kv   KV
	keys StatKeys
	log  zerolog.Logger
}

func NewStatStore(kv KV, keys StatKeys, log zerolog.Logger) *StatStore {
	return &StatStore{
		kv:   kv,
		keys: keys,
		log:  log.With().Str("component", "stat_store").Logger(),
	}
}

// Load never fails: missing or malformed entries fall back to empty defaults.
func (s *StatStore) Load(ctx context.Context) (map[int]GroupStat, int) {
	stats := make(map[int]GroupStat)

	raw, ok, err := s.kv.Get(ctx, s.keys.Stats)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("key", s.keys.Stats).Msg("Read stats failed, starting empty")
	case ok && strings.TrimSpace(raw) != "":
		var decoded map[int]GroupStat
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			s.log.Warn().Err(err).Str("key", s.keys.Stats).Msg("Malformed stats, starting empty")
		} else {
			for idx, stat := range decoded {
				stats[idx] = stat
			}
		}
	}

	total := 0
	raw, ok, err = s.kv.Get(ctx, s.keys.TotalAttempts)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("key", s.keys.TotalAttempts).Msg("Read total attempts failed, starting at 0")
	case ok:
		parsed, parseErr := strconv.Atoi(strings.TrimSpace(raw))
		if parseErr != nil || parsed < 0 {
			s.log.Warn().Str("key", s.keys.TotalAttempts).Str("value", raw).Msg("Malformed total attempts, starting at 0")
		} else {
			total = parsed
		}
	}

	return stats, total
}

func (s *StatStore) Save(ctx context.Context, stats map[int]GroupStat, total int) error {
	encoded, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := s.kv.Set(ctx, s.keys.Stats, string(encoded)); err != nil {
		return fmt.Errorf("write %s: %w", s.keys.Stats, err)
	}
	if err := s.kv.Set(ctx, s.keys.TotalAttempts, strconv.Itoa(total)); err != nil {
		return fmt.Errorf("write %s: %w", s.keys.TotalAttempts, err)
	}
	return nil
}

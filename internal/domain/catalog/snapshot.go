package catalog

import (
	"sort"
	"time"
)

// Bundle is the raw extraction result of one upstream catalog fetch.
type Bundle struct {
	Players []Player
	Teams   []Team
}

// Snapshot is an immutable, timestamped view of the catalog. It is built
// once per refresh and replaced wholesale; readers never observe a
// partially populated snapshot and must not mutate one.
type Snapshot struct {
	playersByID map[int64]Player
	teamsByID   map[int64]Team
	players     []Player
	fetchedAt   time.Time
}

// NewSnapshot indexes the bundle. Duplicate player ids keep the last
// occurrence; the ordered player slice is sorted by id so every iteration
// over the snapshot is deterministic.
func NewSnapshot(bundle Bundle, fetchedAt time.Time) *Snapshot {
	playersByID := make(map[int64]Player, len(bundle.Players))
	for _, p := range bundle.Players {
		playersByID[p.ID] = p
	}

	teamsByID := make(map[int64]Team, len(bundle.Teams))
	for _, t := range bundle.Teams {
		teamsByID[t.ID] = t
	}

	players := make([]Player, 0, len(playersByID))
	for _, p := range playersByID {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	return &Snapshot{
		playersByID: playersByID,
		teamsByID:   teamsByID,
		players:     players,
		fetchedAt:   fetchedAt,
	}
}

func (s *Snapshot) Player(id int64) (Player, bool) {
	p, ok := s.playersByID[id]
	return p, ok
}

// Players returns the snapshot's players ordered by id. Callers must treat
// the slice as read-only.
func (s *Snapshot) Players() []Player {
	return s.players
}

func (s *Snapshot) Team(id int64) (Team, bool) {
	t, ok := s.teamsByID[id]
	return t, ok
}

// TeamShort returns the short name for a team id, or empty when unknown.
func (s *Snapshot) TeamShort(id int64) string {
	if t, ok := s.teamsByID[id]; ok {
		return t.Short
	}
	return ""
}

func (s *Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

func (s *Snapshot) PlayerCount() int {
	return len(s.players)
}

func (s *Snapshot) TeamCount() int {
	return len(s.teamsByID)
}

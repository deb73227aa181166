package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Position represents the fixed set of squad slots a player can fill.
type Position string

const (
	PositionKeeper     Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
	PositionUnknown    Position = "UNK"
)

// PositionFromCode maps the provider's numeric element type onto a
// Position. Codes outside the known range map to PositionUnknown rather
// than failing the snapshot build.
func PositionFromCode(code int) Position {
	switch code {
	case 1:
		return PositionKeeper
	case 2:
		return PositionDefender
	case 3:
		return PositionMidfielder
	case 4:
		return PositionForward
	default:
		return PositionUnknown
	}
}

// Rank orders positions for squad display: keeper first, forwards last,
// unknown placeholders trailing.
func (p Position) Rank() int {
	switch p {
	case PositionKeeper:
		return 0
	case PositionDefender:
		return 1
	case PositionMidfielder:
		return 2
	case PositionForward:
		return 3
	default:
		return 4
	}
}

// Availability classifies whether a player can realistically feature.
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityDoubtful  Availability = "doubtful"
	AvailabilitySuspended Availability = "suspended"
	AvailabilityInjured   Availability = "injured"
	AvailabilityUnknown   Availability = "unknown"
)

// AvailabilityFromStatus maps the provider's single-letter status code.
// Unrecognised codes become AvailabilityUnknown.
func AvailabilityFromStatus(code string) Availability {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "a":
		return AvailabilityAvailable
	case "d":
		return AvailabilityDoubtful
	case "s":
		return AvailabilitySuspended
	case "i":
		return AvailabilityInjured
	default:
		return AvailabilityUnknown
	}
}

// AvailabilityPolicy is the single shared predicate deciding who counts as
// pickable, used both for suggestion candidate pools and squad health
// reporting so the two never disagree.
type AvailabilityPolicy struct {
	IncludeDoubtful bool
}

func (p AvailabilityPolicy) Pickable(a Availability) bool {
	if a == AvailabilityAvailable {
		return true
	}
	return p.IncludeDoubtful && a == AvailabilityDoubtful
}

// SignalKind selects which performance signal drives ranking arithmetic.
type SignalKind string

const (
	SignalExpectedPoints SignalKind = "ep_next"
	SignalPointsPerGame  SignalKind = "ppg"
	SignalForm           SignalKind = "form"
)

func ParseSignalKind(v string) (SignalKind, error) {
	switch SignalKind(strings.ToLower(strings.TrimSpace(v))) {
	case SignalExpectedPoints:
		return SignalExpectedPoints, nil
	case SignalPointsPerGame:
		return SignalPointsPerGame, nil
	case SignalForm:
		return SignalForm, nil
	default:
		return "", fmt.Errorf("invalid signal kind %q: valid values are %s, %s, %s",
			v, SignalExpectedPoints, SignalPointsPerGame, SignalForm)
	}
}

// Player is one catalog member. Costs are integer tenths of the display
// currency; comparisons always use the integer value. Missing upstream
// performance signals default to 0.0 so ranking arithmetic never sees a
// missing operand.
type Player struct {
	ID                 int64
	DisplayName        string
	TeamID             int64
	Position           Position
	Cost               int
	Form               float64
	PointsPerGame      float64
	ExpectedPointsNext float64
	Availability       Availability
	// ChanceOfPlaying is the provider's 0-100 percentage; nil means the
	// provider reported nothing, which is treated as fully available.
	ChanceOfPlaying *int
	PhotoURL        string
	ProfileURL      string
}

// Signal returns the player's value for the selected performance signal.
func (p Player) Signal(kind SignalKind) float64 {
	switch kind {
	case SignalPointsPerGame:
		return p.PointsPerGame
	case SignalForm:
		return p.Form
	default:
		return p.ExpectedPointsNext
	}
}

// DisplayPrice formats the tenths cost as a one-decimal price string.
// Display only; never used for comparisons.
func (p Player) DisplayPrice() string {
	return strconv.FormatFloat(float64(p.Cost)/10, 'f', 1, 64)
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id must be greater than zero")
	}
	if p.DisplayName == "" {
		return fmt.Errorf("player display name is required")
	}
	if p.Cost < 0 {
		return fmt.Errorf("player cost cannot be negative: id=%d", p.ID)
	}
	if p.Form < 0 || p.PointsPerGame < 0 || p.ExpectedPointsNext < 0 {
		return fmt.Errorf("player signals cannot be negative: id=%d", p.ID)
	}
	return nil
}

// Team is a real club referenced by players. Immutable within a snapshot.
type Team struct {
	ID    int64
	Name  string
	Short string
}

func (t Team) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("team id must be greater than zero")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	return nil
}

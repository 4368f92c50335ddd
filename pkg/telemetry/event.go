package telemetry

import (
	"fmt"
	"strings"
	"time"
)

// Mode is the lifecycle signal carried by an event. Values match the
// integer codes stored in the mode column.
type Mode int

const (
	ModePing         Mode = 0
	ModeActivation   Mode = 1
	ModeDeactivation Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModePing:
		return "ping"
	case ModeActivation:
		return "activation"
	case ModeDeactivation:
		return "deactivation"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the known lifecycle codes.
func (m Mode) Valid() bool {
	return m == ModePing || m == ModeActivation || m == ModeDeactivation
}

// Event is one row of the telemetry log: a single signal from one installation.
type Event struct {
	ID      int64     `json:"id"`
	Email   string    `json:"email"`
	Created time.Time `json:"created"`
	Mode    Mode      `json:"mode"`
	IsPro   bool      `json:"is_pro"`
}

// Plan returns the plan the installation reported with this event.
func (e Event) Plan() Plan {
	if e.IsPro {
		return PlanPro
	}
	return PlanFree
}

// Detail is a named integer counter attached to an event.
type Detail struct {
	EventID int64  `json:"event_id"`
	Name    string `json:"name"`
	Value   int64  `json:"val_int"`
}

// Well-known detail names.
const (
	DetailTasks       = "cnt_tasks"
	DetailReason      = "reason"
	FeatureDetailPfx  = "tokens_"
	DetailTokensTotal = "tokens_total"
)

// IsFeatureDetail reports whether name is a per-feature token counter.
func IsFeatureDetail(name string) bool {
	return strings.HasPrefix(name, FeatureDetailPfx) && name != DetailTokensTotal
}

// Plan is the subscription tier of an installation.
type Plan string

const (
	PlanFree Plan = "Free"
	PlanPro  Plan = "Pro"
)

// PlanFilter narrows a metric to one plan or leaves it unrestricted.
type PlanFilter string

const (
	AllPlans PlanFilter = "all"
	FreeOnly PlanFilter = "free"
	ProOnly  PlanFilter = "pro"
)

// ParsePlanFilter maps user input to a PlanFilter. Unknown values mean AllPlans.
func ParsePlanFilter(s string) PlanFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free":
		return FreeOnly
	case "pro":
		return ProOnly
	default:
		return AllPlans
	}
}

// Matches reports whether an event reported with isPro passes the filter.
func (f PlanFilter) Matches(isPro bool) bool {
	switch f {
	case FreeOnly:
		return !isPro
	case ProOnly:
		return isPro
	default:
		return true
	}
}

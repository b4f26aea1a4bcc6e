package commands

import (
	"fmt"
	"slices"
	"time"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/adapters"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/adapters/teeapi"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/adapters/teeweb"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/registry"
)

// buildFleet constructs one adapter per configured source, optionally
// filtered to the given source ids.
func buildFleet(
	reg registry.Registry,
	writer adapters.SlotWriter,
	only []string,
) ([]adapters.Adapter, error) {
	var fleet []adapters.Adapter
	for _, source := range reg.Sources {
		if len(only) > 0 && !slices.Contains(only, source.ID) {
			continue
		}
		switch source.Kind {
		case "api":
			fleet = append(fleet, teeapi.New(teeapi.Config{
				Source:        source,
				MaxConcurrent: source.MaxConcurrent,
			}, writer))
		case "web":
			fleet = append(fleet, teeweb.New(teeweb.Config{
				Source:        source,
				MaxSessions:   source.MaxConcurrent,
				Pace:          time.Duration(source.PaceMS) * time.Millisecond,
				ChallengeWait: time.Duration(source.ChallengeWaitMS) * time.Millisecond,
			}, writer))
		default:
			return nil, fmt.Errorf("source %s: unknown kind %q", source.ID, source.Kind)
		}
	}
	if len(fleet) == 0 {
		return nil, fmt.Errorf("no sources selected")
	}
	return fleet, nil
}

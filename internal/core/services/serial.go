package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/ports"
	"github.com/poyrazK/dnsadmin/internal/infrastructure/metrics"
	"github.com/rs/zerolog"
)

// ErrSerialInvariant is returned when a serial bump targets a zone that does not
// exist. Referential checks run before every mutation, so this indicates a bug.
var ErrSerialInvariant = errors.New("serial bump on missing zone")

// SerialHook increments a zone's serial once per committed record mutation and
// per SOA parameter change.
type SerialHook struct {
	logger zerolog.Logger
}

func NewSerialHook(logger *zerolog.Logger) *SerialHook {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "serial").Logger()
	}
	return &SerialHook{logger: l}
}

// Apply bumps the serial of zoneID through s, which must be the transaction
// carrying the triggering write.
func (h *SerialHook) Apply(ctx context.Context, s ports.SerialStore, zoneID string) (int64, error) {
	serial, err := s.BumpSerial(ctx, zoneID)
	if errors.Is(err, domain.ErrNotFound) {
		h.logger.Error().Str("zone_id", zoneID).Msg("serial bump on missing zone")
		return 0, fmt.Errorf("%w: %s", ErrSerialInvariant, zoneID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to bump serial of zone %s: %w", zoneID, err)
	}
	metrics.SerialBumps.Inc()
	h.logger.Debug().Str("zone_id", zoneID).Int64("serial", serial).Msg("zone serial bumped")
	return serial, nil
}

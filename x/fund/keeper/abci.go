package keeper

import (
	"strconv"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// EndBlocker runs the periodic lifecycle sweep
func (k *Keeper) EndBlocker(ctx sdk.Context) error {
	start := time.Now()
	expired := k.SweepExpired(ctx)

	k.logger.Debug("Fund EndBlocker completed",
		"block", ctx.BlockHeight(),
		"duration_ms", time.Since(start).Milliseconds(),
		"funds_expired", expired,
	)

	if expired > 0 {
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				"fund_endblock",
				sdk.NewAttribute("block_height", strconv.FormatInt(ctx.BlockHeight(), 10)),
				sdk.NewAttribute("funds_expired", strconv.Itoa(expired)),
			),
		)
	}
	return nil
}

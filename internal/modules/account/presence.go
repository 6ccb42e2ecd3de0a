// README: Driver availability backed by a Redis set.
package account

import (
	"context"

	"github.com/redis/go-redis/v9"

	"cityride/internal/types"
)

const onlineDriversKey = "presence:drivers:online"

// Presence tracks which drivers are currently taking rides. The driver
// dashboard exposes this as an online/offline toggle; the waiting pool is
// only shown to online drivers.
type Presence struct {
	redis *redis.Client
}

func NewPresence(client *redis.Client) *Presence {
	return &Presence{redis: client}
}

func (p *Presence) SetOnline(ctx context.Context, driverID types.ID) error {
	return p.redis.SAdd(ctx, onlineDriversKey, string(driverID)).Err()
}

func (p *Presence) SetOffline(ctx context.Context, driverID types.ID) error {
	return p.redis.SRem(ctx, onlineDriversKey, string(driverID)).Err()
}

func (p *Presence) IsOnline(ctx context.Context, driverID types.ID) (bool, error) {
	return p.redis.SIsMember(ctx, onlineDriversKey, string(driverID)).Result()
}

func (p *Presence) OnlineDrivers(ctx context.Context) ([]types.ID, error) {
	members, err := p.redis.SMembers(ctx, onlineDriversKey).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(members))
	for i, m := range members {
		ids[i] = types.ID(m)
	}
	return ids, nil
}

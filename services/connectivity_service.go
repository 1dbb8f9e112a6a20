package services

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"gate-validator/monitoring"
)

// ConnectivityService tracks whether the ticket store is reachable. It
// only flips a flag and fires the reconnect callback; it never gates a
// validation decision.
type ConnectivityService struct {
	Store TicketStore

	interval    time.Duration
	online      atomic.Bool
	onReconnect func(context.Context)
}

func NewConnectivityService(store TicketStore, interval time.Duration, onReconnect func(context.Context)) *ConnectivityService {
	return &ConnectivityService{
		Store:       store,
		interval:    interval,
		onReconnect: onReconnect,
	}
}

// Init seeds the flag from the store's current reachability without
// firing the reconnect callback.
func (c *ConnectivityService) Init(ctx context.Context) {
	up := c.Store.Ping(ctx) == nil
	c.online.Store(up)
	monitoring.SetStoreOnline(up)
	if up {
		log.Println("connectivity: starting online")
	} else {
		log.Println("connectivity: starting offline, validations run against the local cache")
	}
}

// Run probes the store on a fixed interval until ctx is cancelled.
func (c *ConnectivityService) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Probe(ctx)
		}
	}
}

// Probe checks the store once and records the transition.
func (c *ConnectivityService) Probe(ctx context.Context) bool {
	up := c.Store.Ping(ctx) == nil
	was := c.online.Swap(up)
	monitoring.SetStoreOnline(up)

	switch {
	case up && !was:
		log.Println("connectivity: store reachable again, reconciling")
		if c.onReconnect != nil {
			c.onReconnect(ctx)
		}
	case !up && was:
		log.Println("connectivity: store unreachable, validations continue offline")
	}
	return up
}

func (c *ConnectivityService) IsOnline() bool {
	return c.online.Load()
}

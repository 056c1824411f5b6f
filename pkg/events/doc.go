/*
Package events provides an in-memory event broker for box lifecycle pub/sub.

It implements a lightweight event bus broadcasting box lifecycle events
(prewarmed, started, exec timeout, health failed, snapshotted, restored,
destroyed) to interested subscribers, so the core (pkg/boxmgr, pkg/boxproc)
never has to know about audit logging, billing, or other downstream
consumers directly.

# Architecture

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │              Event Broker                   │          │
	│  │  - In-memory message bus                    │          │
	│  │  - Non-blocking publish                     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          Event Distribution                 │          │
	│  │                                              │          │
	│  │  Publisher → Event Channel (buffer: 100)    │          │
	│  │       ↓                                      │          │
	│  │  Broadcast Loop                              │          │
	│  │       ↓                                      │          │
	│  │  Subscriber Channels (buffer: 50 each)      │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Event Types                       │          │
	│  │                                              │          │
	│  │    box.prewarmed                            │          │
	│  │    box.started                               │          │
	│  │    box.exec.timeout                          │          │
	│  │    box.health.failed                         │          │
	│  │    box.snapshotted                           │          │
	│  │    box.restored                              │          │
	│  │    box.destroyed                             │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Event Broker:
  - Central message bus; manages subscriber lifecycle
  - Non-blocking publish via buffered channel
  - Graceful shutdown via stop channel

Event:
  - Type, BoxID, Timestamp, Message, Metadata

Subscriber:
  - Channel receiving *Event; buffered (50) to absorb bursts
  - Created via broker.Subscribe(), closed via broker.Unsubscribe()

# Usage

	import "github.com/boxrun/sandboxd/pkg/events"

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			fmt.Printf("[%s] %s: %s\n", event.BoxID, event.Type, event.Message)
		}
	}()

	broker.Publish(&events.Event{
		Type:    events.EventBoxStarted,
		BoxID:   "box-1a2b3c",
		Message: "box started",
	})

# Integration Points

This package integrates with:

  - pkg/boxmgr: publishes box.prewarmed, box.started, box.destroyed, box.snapshotted, box.restored
  - pkg/boxproc: publishes box.exec.timeout and, from its health monitor, box.health.failed

# Design Patterns

Non-Blocking Publish:
  - Publish sends to a buffered channel and returns immediately;
    events are dropped (not queued indefinitely) if the broker stops.

Fan-Out:
  - One event broadcast to every subscriber's own channel; a full
    subscriber buffer skips that subscriber rather than blocking the broker.

Fire-and-Forget:
  - No acknowledgment or retry. Suitable for monitoring/audit, not
    for anything the box lifecycle itself depends on completing.

# Limitations

  - In-memory only, no persistence or replay
  - No guaranteed delivery, no ordering guarantee across subscribers
  - No per-type subscription filtering (all events broadcast; subscribers filter themselves)

# See Also

  - pkg/boxmgr for the lifecycle transitions that publish these events
  - Pub/sub pattern: https://en.wikipedia.org/wiki/Publish%E2%80%93subscribe_pattern
*/
package events

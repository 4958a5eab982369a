// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package audit

import (
	"context"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/events"
)

// EventHandler records every published event. Register it as a synchronous bus handler.
func (service *Service) EventHandler() events.Handler {
	return events.HandlerFunc(func(ctx context.Context, event events.Event) {
		service.Record(ctx, Record{
			UserID:       event.Actor.UserID,
			Action:       event.Name.Action(),
			ResourceType: event.Name.Resource(),
			ResourceID:   event.ResourceID,
			IP:           event.Actor.IP,
			UserAgent:    event.Actor.UserAgent,
			Details:      event.Payload,
		})
	})
}

// Command simulation replays a network drop through an in-process
// orchestrator and prints every transition and notification.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/pkg/events"
	"network-orchestrator-be/pkg/fallback"
	"network-orchestrator-be/pkg/history"
	"network-orchestrator-be/pkg/metrics"
	"network-orchestrator-be/pkg/orchestrator"
	"network-orchestrator-be/pkg/polling"
	"network-orchestrator-be/pkg/prediction"
	"network-orchestrator-be/pkg/session"
	"network-orchestrator-be/pkg/store"

	"github.com/fatih/color"
)

const contextID = "sim-tab"

type consoleNotifier struct{}

func (consoleNotifier) Notify(ctx context.Context, n entity.SurfaceNotification) error {
	c := color.New(color.FgMagenta, color.Bold)
	if n.Kind == entity.NotificationSignalRestored {
		c = color.New(color.FgGreen, color.Bold)
	}
	c.Printf("  -> %s [%s] %s\n", n.Kind, n.State, string(n.Payload))
	return nil
}

type consolePublisher struct{}

func (consolePublisher) Publish(ctx context.Context, ev events.Event) error {
	color.Yellow("  state %s -> %s (%s)", ev.Payload()["from"], ev.Payload()["to"], ev.Payload()["reason"])
	return nil
}

func main() {
	ctx := context.Background()
	log := logger.NewNopLogger()
	m := metrics.New()
	kv := store.NewMemoryStore()

	producer := fallback.ProducerFunc(func(ctx context.Context, platformTag, contentID string, pos float64) (json.RawMessage, error) {
		time.Sleep(200 * time.Millisecond)
		return json.Marshal(map[string]interface{}{
			"summary":          fmt.Sprintf("Audio summary of %s from %.0fs", contentID, pos),
			"position_seconds": pos,
		})
	})

	ctl := polling.NewController(polling.DefaultConfig(), nil, log, m)
	orch := orchestrator.New(orchestrator.DefaultConfig(), orchestrator.Dependencies{
		History:   history.New(history.DefaultCapacity),
		Predictor: prediction.NewEngine(prediction.DefaultConfig(), nil, nil, log, m),
		Polling:   ctl,
		Sessions:  session.NewStore(kv, log),
		Fallback:  fallback.NewCache(kv, nil, producer, log, m),
		Notifier:  consoleNotifier{},
		Publisher: consolePublisher{},
		Store:     kv,
		Logger:    log,
		Metrics:   m,
	})

	handle := func(ev events.Inbound) {
		if err := orch.Handle(ctx, ev); err != nil {
			color.Red("handle %s: %v", ev.Kind(), err)
			os.Exit(1)
		}
	}

	color.Cyan("=== Network Condition Orchestrator simulation ===")

	color.Cyan("\n[1] Viewing metadata")
	pos := 312.0
	handle(events.ViewingMetadata{ContextID: contextID, ContentID: "lecture-42", PlatformTag: "youtube", PositionSeconds: &pos})

	color.Cyan("\n[2] Movement 70, 70, 40 km/h")
	movement := polling.NewScriptedMovement(contextID, []float64{70, 70, 40})
	for {
		mv, err := movement.Movement(ctx)
		if err != nil {
			break
		}
		handle(events.MovementSample{ContextID: mv.ContextID, VelocityKmh: mv.VelocityKmh, Timestamp: mv.Timestamp})
		fmt.Printf("  %.0f km/h -> polling every %s\n", mv.VelocityKmh, ctl.Interval())
	}

	color.Cyan("\n[3] Healthy baseline")
	replay(ctx, handle, baseline())
	printStatus(orch)

	color.Cyan("\n[4] Entering a tunnel")
	replay(ctx, handle, tunnel())
	orch.WaitPregeneration()
	printStatus(orch)

	color.Cyan("\n[5] Signal restored")
	handle(events.RestorationSignal{ContextID: contextID})
	printStatus(orch)

	stats := orch.Fallback.Stats()
	color.Green("\nDone. fallback cache: %d entries, %d hits, %d misses", stats.Entries, stats.Hits, stats.Misses)
}

func baseline() []entity.TelemetrySample {
	out := make([]entity.TelemetrySample, 10)
	for i := range out {
		out[i] = entity.TelemetrySample{EffectiveType: entity.EffectiveType4G, DownlinkMbps: 8, RTTMs: 60, SourceContextID: contextID}
	}
	return out
}

func tunnel() []entity.TelemetrySample {
	downlinks := []float64{6, 4, 2.5, 1.2, 0.4}
	rtts := []int{120, 300, 650, 1100, 1800}
	out := make([]entity.TelemetrySample, len(downlinks))
	for i := range downlinks {
		out[i] = entity.TelemetrySample{
			EffectiveType:   polling.ClassifyEffectiveType(downlinks[i], rtts[i]),
			DownlinkMbps:    downlinks[i],
			RTTMs:           rtts[i],
			SourceContextID: contextID,
		}
	}
	return out
}

// replay feeds a scripted source into the orchestrator until it runs dry.
func replay(ctx context.Context, handle func(events.Inbound), samples []entity.TelemetrySample) {
	src := polling.NewScriptedSource(samples, false)
	for {
		s, err := src.Sample(ctx)
		if err != nil {
			return
		}
		handle(events.NetworkTelemetry{
			EffectiveType: string(s.EffectiveType),
			DownlinkMbps:  s.DownlinkMbps,
			RTTMs:         s.RTTMs,
			ContextID:     s.SourceContextID,
			Timestamp:     s.Timestamp,
		})
	}
}

func printStatus(orch *orchestrator.Orchestrator) {
	st := orch.Status()
	line := fmt.Sprintf("  state=%s history=%d interval=%dms", st.State, st.HistoryLength, st.IntervalMs)
	if st.LastPrediction != nil {
		line += fmt.Sprintf(" drop=%t confidence=%.2f", st.LastPrediction.DropPredicted, st.LastPrediction.Confidence)
	}
	fmt.Println(line)
}

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/ports"
)

func newTestAgent(src ports.StreamSource, log *memLog, sender *fakeSender, status *memStatus, emitter ports.EventEmitter) *Agent {
	var repo ports.StatusRepository
	if status != nil {
		repo = status
	}
	return NewAgent(
		AgentConfig{
			PollInterval: time.Millisecond,
			DrainAll:     true,
		},
		func(ctx context.Context) (ports.StreamSource, error) { return src, nil },
		func() (ports.RecordLog, error) { return log, nil },
		sender,
		repo,
		&mockLogger{},
		emitter,
	)
}

func TestAgent_Run_ForwardsUntilSourceCloses(t *testing.T) {
	src := &scriptedSource{reads: []read{
		{chunk: "\x00\xffnoise{\"co2\": 400, \"temperature\": 21.5}"},
		{chunk: "{bad}{\"co2\":"},
		{chunk: " 401}"},
	}}
	log := &memLog{}
	sender := &fakeSender{}
	status := &memStatus{}
	agent := newTestAgent(src, log, sender, status, nil)

	if err := agent.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil after source closed", err)
	}

	records := log.Records()
	if len(records) != 2 {
		t.Fatalf("logged %d records, want 2", len(records))
	}
	for i, rec := range records {
		if _, err := time.ParseInLocation(domain.TimeLayout, rec.Time(), time.Local); err != nil {
			t.Errorf("record %d Time = %q: %v", i, rec.Time(), err)
		}
	}
	if got := len(sender.Payloads()); got != 2 {
		t.Errorf("sent %d payloads, want 2", got)
	}
	if !src.closed {
		t.Error("source not closed after Run")
	}
	if !log.closed {
		t.Error("record log not closed after Run")
	}

	saved, saves := status.Saved()
	if saves == 0 {
		t.Fatal("status never saved")
	}
	if saved.Records != 2 || saved.ParseErrors != 1 || saved.Delivered != 2 {
		t.Errorf("saved status = %+v, want 2 records, 1 parse error, 2 delivered", saved)
	}
	if saved.Latest[domain.FieldCO2] != json.Number("401") {
		t.Errorf("saved latest co2 = %v, want 401", saved.Latest[domain.FieldCO2])
	}

	rec, ok := agent.Latest()
	if !ok || rec[domain.FieldCO2] != json.Number("401") {
		t.Errorf("Latest() = %v, %v; want co2 401", rec, ok)
	}
}

func TestAgent_Run_DeliveryFailureDoesNotStop(t *testing.T) {
	src := &scriptedSource{reads: []read{
		{chunk: `{"co2":400}`},
		{chunk: `{"co2":401}`},
	}}
	log := &memLog{}
	sender := &fakeSender{statuses: []int{503, 201}}
	agent := newTestAgent(src, log, sender, nil, nil)

	if err := agent.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if got := len(log.Records()); got != 2 {
		t.Errorf("logged %d records, want 2", got)
	}
	st := agent.Status()
	if st.DeliveryFailures != 1 || st.Delivered != 1 {
		t.Errorf("failures=%d delivered=%d, want 1 and 1", st.DeliveryFailures, st.Delivered)
	}
}

func TestAgent_Run_LogFailureIsFatal(t *testing.T) {
	src := &scriptedSource{reads: []read{
		{chunk: `{"co2":400}{"co2":401}{"co2":402}`},
	}}
	log := &memLog{failAt: 2}
	sender := &fakeSender{}
	agent := newTestAgent(src, log, sender, nil, nil)

	err := agent.Run(context.Background())
	if !errors.Is(err, domain.ErrLogWrite) {
		t.Fatalf("Run() = %v, want ErrLogWrite", err)
	}
	if got := len(sender.Payloads()); got != 1 {
		t.Errorf("sent %d payloads, want 1", got)
	}
}

func TestAgent_Run_SourceOpenFailure(t *testing.T) {
	logOpened := false
	agent := NewAgent(
		AgentConfig{},
		func(ctx context.Context) (ports.StreamSource, error) {
			return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, errBoom)
		},
		func() (ports.RecordLog, error) {
			logOpened = true
			return &memLog{}, nil
		},
		&fakeSender{},
		nil,
		&mockLogger{},
		nil,
	)

	err := agent.Run(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) || !errors.Is(err, errBoom) {
		t.Fatalf("Run() = %v, want ErrSourceUnavailable wrapping errBoom", err)
	}
	if logOpened {
		t.Error("record log opened although the source failed")
	}
}

func TestAgent_Run_LostSourceIsFatal(t *testing.T) {
	src := &scriptedSource{reads: []read{
		{chunk: `{"co2":400}`},
		{err: fmt.Errorf("%w: device disconnected", domain.ErrSourceUnavailable)},
	}}
	log := &memLog{}
	status := &memStatus{}
	agent := newTestAgent(src, log, &fakeSender{}, status, nil)

	err := agent.Run(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("Run() = %v, want ErrSourceUnavailable", err)
	}
	if got := len(log.Records()); got != 1 {
		t.Errorf("logged %d records, want 1", got)
	}
	if !src.closed {
		t.Error("source not closed after Run")
	}
	if saved, saves := status.Saved(); saves == 0 || saved.Records != 1 {
		t.Errorf("final status = %+v after %d saves, want 1 record", saved, saves)
	}
}

func TestAgent_Run_SavesStatusWhileIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	status := &memStatus{}
	agent := NewAgent(
		AgentConfig{PollInterval: time.Millisecond, DrainAll: true, StatusInterval: 5 * time.Millisecond},
		func(ctx context.Context) (ports.StreamSource, error) { return &blockingSource{}, nil },
		func() (ports.RecordLog, error) { return &memLog{}, nil },
		&fakeSender{},
		status,
		&mockLogger{},
		nil,
	)

	done := make(chan error, 1)
	go func() { done <- agent.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		if _, saves := status.Saved(); saves >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("status not saved while the source was silent")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}

func TestAgent_Run_RestoresCounters(t *testing.T) {
	src := &scriptedSource{reads: []read{{chunk: `{"co2":400}`}}}
	status := &memStatus{status: domain.Status{Records: 5, Delivered: 4, ParseErrors: 2}}
	agent := newTestAgent(src, &memLog{}, &fakeSender{}, status, nil)

	if err := agent.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	saved, _ := status.Saved()
	if saved.Records != 6 || saved.Delivered != 5 || saved.ParseErrors != 2 {
		t.Errorf("saved status = %+v, want records 6, delivered 5, parse errors 2", saved)
	}
}

func TestAgent_Run_StatusLoadErrorIgnored(t *testing.T) {
	src := &scriptedSource{reads: []read{{chunk: `{"co2":400}`}}}
	status := &memStatus{loadErr: errBoom}
	agent := newTestAgent(src, &memLog{}, &fakeSender{}, status, nil)

	if err := agent.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if saved, _ := status.Saved(); saved.Records != 1 {
		t.Errorf("saved records = %d, want 1", saved.Records)
	}
}

func TestAgent_Run_CancelStopsAndSaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &blockingSource{chunks: []string{`{"co2":400}`}}
	status := &memStatus{}
	emitter := recordingEmitter{onRecord: func(domain.Record) { cancel() }}
	agent := newTestAgent(src, &memLog{}, &fakeSender{}, status, emitter)

	done := make(chan error, 1)
	go func() { done <- agent.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	saved, saves := status.Saved()
	if saves == 0 || saved.Records != 1 {
		t.Errorf("final status = %+v after %d saves, want 1 record", saved, saves)
	}
}

func TestAgent_Run_QueuedDelivery(t *testing.T) {
	src := &scriptedSource{reads: []read{
		{chunk: `{"co2":1}{"co2":2}{"co2":3}`},
	}}
	sender := &fakeSender{}
	agent := NewAgent(
		AgentConfig{PollInterval: time.Millisecond, DrainAll: true, QueueSize: 8},
		func(ctx context.Context) (ports.StreamSource, error) { return src, nil },
		func() (ports.RecordLog, error) { return &memLog{}, nil },
		sender,
		nil,
		&mockLogger{},
		nil,
	)

	if err := agent.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	// Run drains the queue before returning.
	payloads := sender.Payloads()
	if len(payloads) != 3 {
		t.Fatalf("sent %d payloads, want 3", len(payloads))
	}
	for i, p := range payloads {
		want := json.Number(fmt.Sprint(i + 1))
		if p.CO2 != want {
			t.Errorf("payload %d co2 = %v, want %v", i, p.CO2, want)
		}
	}
}

package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type selection struct {
	Year  int    `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

type fakePublisher struct {
	msgs []*nats.Msg
	err  error
}

func (f *fakePublisher) PublishMsg(msg *nats.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestNatsHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	carrier := (*natsHeaderCarrier)(msg)

	carrier.Set("traceparent", "00-abc-def-01")
	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("expected traceparent, got %q", got)
	}
	if keys := carrier.Keys(); len(keys) != 1 {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestNatsHeaderCarrierNilHeader(t *testing.T) {
	carrier := (*natsHeaderCarrier)(&nats.Msg{})

	if got := carrier.Get("missing"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if keys := carrier.Keys(); keys != nil {
		t.Fatalf("expected nil keys, got %v", keys)
	}
}

func TestPublish(t *testing.T) {
	pub := &fakePublisher{}
	err := Publish(context.Background(), pub, "wessley.vehicle.selected", selection{2020, "TOYOTA", "Camry"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(pub.msgs))
	}
	msg := pub.msgs[0]
	if msg.Subject != "wessley.vehicle.selected" || msg.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	var got selection
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got != (selection{2020, "TOYOTA", "Camry"}) {
		t.Fatalf("payload = %+v", got)
	}
}

func TestPublishPropagatesTrace(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	pub := &fakePublisher{}
	if err := Publish(ctx, pub, "s", selection{}); err != nil {
		t.Fatal(err)
	}
	if pub.msgs[0].Header.Get("traceparent") == "" {
		t.Fatal("traceparent header not injected")
	}

	got := trace.SpanContextFromContext(otel.GetTextMapPropagator().Extract(context.Background(), (*natsHeaderCarrier)(pub.msgs[0])))
	if got.TraceID() != traceID {
		t.Fatalf("extracted trace id %s, want %s", got.TraceID(), traceID)
	}
}

func TestPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: nats.ErrConnectionClosed}
	err := Publish(context.Background(), pub, "s", selection{})
	if !errors.Is(err, nats.ErrConnectionClosed) {
		t.Fatalf("expected wrapped ErrConnectionClosed, got %v", err)
	}

	err = Publish(context.Background(), &fakePublisher{}, "s", func() {})
	if err == nil {
		t.Fatal("expected marshal error")
	}
}

package natsconn

import (
	"testing"
	"time"
)

func TestOptionsDefaults_FromEnv(t *testing.T) {
	t.Setenv("NATS_URL", "nats://bus.academy.test:4222")
	t.Setenv("NATS_MAX_RECONNECTS", "9")
	t.Setenv("NATS_RECONNECT_WAIT", "750ms")
	o := Options{}.withDefaults()
	if o.URL != "nats://bus.academy.test:4222" || o.MaxReconnects != 9 || o.ReconnectWait != 750*time.Millisecond {
		t.Fatalf("unexpected options %+v", o)
	}
	if o.Logger == nil {
		t.Fatal("expected nop logger")
	}
}

func TestOptionsDefaults_Fallbacks(t *testing.T) {
	t.Setenv("NATS_URL", "")
	t.Setenv("NATS_MAX_RECONNECTS", "not-a-number")
	t.Setenv("NATS_RECONNECT_WAIT", "")
	o := Options{}.withDefaults()
	if o.URL != DefaultURL || o.MaxReconnects != 5 || o.ReconnectWait != 2*time.Second {
		t.Fatalf("unexpected fallbacks %+v", o)
	}
}

func TestOptionsDefaults_ExplicitWins(t *testing.T) {
	t.Setenv("NATS_MAX_RECONNECTS", "9")
	o := Options{URL: "nats://local:4222", MaxReconnects: 2, ReconnectWait: time.Second}.withDefaults()
	if o.URL != "nats://local:4222" || o.MaxReconnects != 2 || o.ReconnectWait != time.Second {
		t.Fatalf("explicit options overridden: %+v", o)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(Options{
		URL:           "nats://127.0.0.1:19999",
		Name:          "academy-test",
		MaxReconnects: 1,
		ReconnectWait: 10 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error connecting to unreachable NATS")
	}
}

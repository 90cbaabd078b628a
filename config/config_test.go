package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "single service - http",
			input:    "http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:     "single service - job-worker",
			input:    "job-worker",
			expected: map[ServiceMode]bool{ServiceModeJobWorker: true},
		},
		{
			name:  "all services with spaces",
			input: " http , job-events , job-worker ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:      true,
				ServiceModeJobEvents: true,
				ServiceModeJobWorker: true,
			},
		},
		{
			name:  "duplicate services",
			input: "http,http,job-events",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:      true,
				ServiceModeJobEvents: true,
			},
		},
		{
			name:        "empty string",
			input:       "",
			expected:    map[ServiceMode]bool{},
			expectError: true,
		},
		{
			name:        "only commas",
			input:       ",,",
			expectError: true,
		},
		{
			name:        "invalid service",
			input:       "http,rules-engine",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				if tt.expected != nil && !reflect.DeepEqual(result, tt.expected) {
					t.Errorf("expected %v, got %v", tt.expected, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	cfg := AppConfig{Services: "http,job-events"}
	if !cfg.IsHTTPServerEnabled() {
		t.Error("expected http enabled")
	}
	if !cfg.IsJobEventsEnabled() {
		t.Error("expected job-events enabled")
	}
	if cfg.IsJobWorkerEnabled() {
		t.Error("expected job-worker disabled")
	}

	bad := AppConfig{Services: "nope"}
	if bad.IsHTTPServerEnabled() || bad.IsJobEventsEnabled() || bad.IsJobWorkerEnabled() {
		t.Error("invalid SERVICES must enable nothing")
	}
}

func TestValidServiceModes(t *testing.T) {
	modes := ValidServiceModes()
	want := []ServiceMode{ServiceModeHTTP, ServiceModeJobEvents, ServiceModeJobWorker}
	if !reflect.DeepEqual(modes, want) {
		t.Fatalf("expected %v, got %v", want, modes)
	}
	for _, m := range modes {
		if _, err := ParseServices(string(m)); err != nil {
			t.Errorf("mode %q does not round-trip: %v", m, err)
		}
	}
	if ServiceModeHTTP.RequiresRedis() || !ServiceModeJobWorker.RequiresRedis() || !ServiceModeJobEvents.RequiresRedis() {
		t.Error("unexpected RequiresRedis result")
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != ":4000" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Auth.Mode != AuthModeScaffold {
		t.Errorf("Auth.Mode = %q", cfg.Auth.Mode)
	}
	if cfg.Redis.Configured() {
		t.Error("redis must be optional by default")
	}
	if cfg.Jobs.RunningDelay != 2*time.Second || cfg.Jobs.SucceedDelay != 1500*time.Millisecond {
		t.Errorf("unexpected delays %s/%s", cfg.Jobs.RunningDelay, cfg.Jobs.SucceedDelay)
	}
	if cfg.Jobs.QueueKey != "ai_jobs" || cfg.Jobs.EventsChannel != "ai_job_events" {
		t.Errorf("unexpected queue names %q/%q", cfg.Jobs.QueueKey, cfg.Jobs.EventsChannel)
	}
	if cfg.Jobs.IDStrategy != IDStrategySequence {
		t.Errorf("IDStrategy = %q", cfg.Jobs.IDStrategy)
	}
	if !cfg.Worker.DryRun || cfg.Worker.Concurrency != 1 || cfg.Worker.PollTimeout != 5*time.Second {
		t.Errorf("unexpected worker defaults %+v", cfg.Worker)
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "Static")
	t.Setenv("AUTH_TOKENS", "one, two ,")
	t.Setenv("REDIS_URI", " redis://localhost:6379/0 ")
	t.Setenv("JOBS_ID_STRATEGY", "uuid")
	t.Setenv("JOBS_RUNNING_DELAY", "250ms")
	t.Setenv("WORKER_POLL_TIMEOUT", "100ms")
	t.Setenv("WORKER_CONCURRENCY", "0")
	t.Setenv("SERVICES", "http,job-worker")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg.Sanitize()

	if cfg.Auth.Mode != AuthModeStatic {
		t.Errorf("Auth.Mode = %q", cfg.Auth.Mode)
	}
	if !reflect.DeepEqual(cfg.Auth.Tokens, []string{"one", "two"}) {
		t.Errorf("Auth.Tokens = %#v", cfg.Auth.Tokens)
	}
	if !cfg.Redis.Configured() || cfg.Redis.URI != "redis://localhost:6379/0" {
		t.Errorf("Redis.URI = %q", cfg.Redis.URI)
	}
	if cfg.Jobs.IDStrategy != IDStrategyUUID {
		t.Errorf("IDStrategy = %q", cfg.Jobs.IDStrategy)
	}
	if cfg.Jobs.RunningDelay != 250*time.Millisecond {
		t.Errorf("RunningDelay = %s", cfg.Jobs.RunningDelay)
	}
	if cfg.Worker.PollTimeout != time.Second {
		t.Errorf("PollTimeout must be clamped to 1s, got %s", cfg.Worker.PollTimeout)
	}
	if cfg.Worker.Concurrency != 1 {
		t.Errorf("Concurrency must be clamped to 1, got %d", cfg.Worker.Concurrency)
	}
	if !cfg.IsJobWorkerEnabled() {
		t.Error("expected job-worker enabled")
	}
}

func TestAppConfig_InvalidEnums(t *testing.T) {
	for key, val := range map[string]string{
		"AUTH_MODE":        "oauth",
		"JOBS_ID_STRATEGY": "snowflake",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			var cfg AppConfig
			if err := env.Parse(&cfg); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestRedisConfig_Sanitize(t *testing.T) {
	r := RedisConfig{UseCluster: true, ClusterNodes: []string{" ", ""}, UseSentinel: true, SentinelNodes: []string{" s1:26379 "}}
	r.Sanitize()
	if r.UseCluster {
		t.Error("cluster without nodes must be disabled")
	}
	if !r.UseSentinel || !reflect.DeepEqual(r.SentinelNodes, []string{"s1:26379"}) {
		t.Errorf("unexpected sentinel config %+v", r)
	}
	if !r.Configured() {
		t.Error("sentinel mode counts as configured")
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	c := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "   "}
	c.Sanitize()
	if c.IsEnabled() {
		t.Error("metrics without an address must be disabled")
	}
	if c.Prefix != "genjobs" {
		t.Errorf("Prefix = %q", c.Prefix)
	}

	c = ObservabilityMetricsConfig{Enabled: true, StatsdAddress: " 127.0.0.1:8125 ", Prefix: "x"}
	c.Sanitize()
	if !c.IsEnabled() || c.StatsdAddress != "127.0.0.1:8125" {
		t.Errorf("unexpected %+v", c)
	}
}

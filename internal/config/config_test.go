package config

import "testing"

func TestLoadUsesPipelineDefaults(t *testing.T) {
	t.Setenv("TOP_SIGNALS", "")
	t.Setenv("SIMILARITY_THRESHOLD", "")
	t.Setenv("QUOTE_REQUESTS_PER_MINUTE", "")
	t.Setenv("RETENTION_HORIZON_DAYS", "")
	t.Setenv("NATS_SUBJECT", "")

	cfg := Load()
	if cfg.TopSignals != 5 {
		t.Fatalf("expected default top signals 5, got %d", cfg.TopSignals)
	}
	if cfg.SimilarityThreshold != 0.75 {
		t.Fatalf("expected default similarity threshold 0.75, got %v", cfg.SimilarityThreshold)
	}
	if cfg.QuoteRequestsPerMinute != 5 {
		t.Fatalf("expected default quote budget 5/min, got %d", cfg.QuoteRequestsPerMinute)
	}
	if cfg.RetentionHorizonDays != 365 {
		t.Fatalf("expected default retention horizon 365, got %d", cfg.RetentionHorizonDays)
	}
	if cfg.NATSSubject != "crawl.items" {
		t.Fatalf("expected default subject crawl.items, got %q", cfg.NATSSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("TOP_SIGNALS", "10")
	t.Setenv("SIMILARITY_THRESHOLD", "0.9")
	t.Setenv("QUOTE_REQUESTS_PER_MINUTE", "30")
	t.Setenv("RULES_PATH", "/etc/intent/rules.yaml")

	cfg := Load()
	if cfg.TopSignals != 10 {
		t.Fatalf("expected top signals 10, got %d", cfg.TopSignals)
	}
	if cfg.SimilarityThreshold != 0.9 {
		t.Fatalf("expected similarity threshold 0.9, got %v", cfg.SimilarityThreshold)
	}
	if cfg.QuoteRequestsPerMinute != 30 {
		t.Fatalf("expected quote budget 30/min, got %d", cfg.QuoteRequestsPerMinute)
	}
	if cfg.RulesPath != "/etc/intent/rules.yaml" {
		t.Fatalf("expected rules path override, got %q", cfg.RulesPath)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SIMILARITY_THRESHOLD", "not-a-number")
	t.Setenv("TOP_SIGNALS", "many")

	cfg := Load()
	if cfg.SimilarityThreshold != 0.75 {
		t.Fatalf("malformed float must fall back, got %v", cfg.SimilarityThreshold)
	}
	if cfg.TopSignals != 5 {
		t.Fatalf("malformed int must fall back, got %d", cfg.TopSignals)
	}
}

package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(redact bool) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return FromZap(zap.New(core), redact), logs
}

func TestRedactsCredentialsAndHashesLearner(t *testing.T) {
	log, logs := observed(true)
	log.Warn("login failed",
		"email", "ada@example.com",
		"user_id", "ada@example.com",
		"detail", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhZGEifQ.sig",
		"op", "login")

	fields := logs.All()[0].ContextMap()
	if fields["email"] != "[REDACTED]" {
		t.Fatalf("email not redacted: %v", fields["email"])
	}
	if id, _ := fields["user_id"].(string); !strings.HasPrefix(id, "hash:") || strings.Contains(id, "ada") {
		t.Fatalf("user_id not hashed: %v", fields["user_id"])
	}
	if fields["detail"] != "[REDACTED]" {
		t.Fatalf("jwt-looking value not redacted: %v", fields["detail"])
	}
	if fields["op"] != "login" {
		t.Fatalf("plain field changed: %v", fields["op"])
	}
}

func TestRedactionOffAndWithKeepsSetting(t *testing.T) {
	log, logs := observed(false)
	log.Info("signup", "email", "ada@example.com")
	if got := logs.All()[0].ContextMap()["email"]; got != "ada@example.com" {
		t.Fatalf("expected raw value with redaction off, got %v", got)
	}

	red, logs := observed(true)
	red.With("component", "x").Info("child", "password", "hunter2")
	if got := logs.All()[0].ContextMap()["password"]; got != "[REDACTED]" {
		t.Fatalf("child logger lost redaction: %v", got)
	}
}

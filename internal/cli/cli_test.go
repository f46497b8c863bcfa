package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"driver-link/internal/general/jwt"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		args     []string
		mode     string
		rest     []string
		wantFail bool
	}{
		{args: []string{"agent", "--config=x.yaml"}, mode: ModeAgent, rest: []string{"--config=x.yaml"}},
		{args: []string{"--mode=wake", "--after=2s"}, mode: ModeWake, rest: []string{"--after=2s"}},
		{args: []string{"--reason=boot", "resume"}, mode: ModeWake, rest: []string{"--reason=boot"}},
		{args: []string{"wd"}, mode: ModeWatchdog},
		{args: []string{"events", "--prefetch=4"}, mode: ModeJournal, rest: []string{"--prefetch=4"}},
		{args: []string{"--mode=nope"}, wantFail: true},
		{args: []string{"--config=x.yaml"}, wantFail: true},
	}

	for _, tt := range tests {
		mode, rest, err := ParseMode(tt.args)
		if tt.wantFail {
			if err == nil {
				t.Fatalf("%v: expected error", tt.args)
			}
			continue
		}
		if err != nil || mode != tt.mode {
			t.Fatalf("%v: got %q, %v", tt.args, mode, err)
		}
		if strings.Join(rest, " ") != strings.Join(tt.rest, " ") {
			t.Fatalf("%v: rest = %v", tt.args, rest)
		}
	}
}

func TestGenerateToken(t *testing.T) {
	token, claims, err := GenerateToken("secret", "ops", "operator", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if claims.Role != jwt.RoleOperator || claims.Subject != "ops" {
		t.Fatalf("claims %+v", claims)
	}

	_, parsed, err := jwt.NewManager("secret", time.Hour).ParseAndValidate(token)
	if err != nil || parsed.Role != jwt.RoleOperator {
		t.Fatalf("parse: %v", err)
	}
	if out := PrintToken(token, claims); !strings.Contains(out, "role: OPERATOR") {
		t.Fatalf("print: %s", out)
	}

	if _, _, err := GenerateToken("secret", "ops", "ADMIN", time.Hour); !errors.Is(err, jwt.ErrInvalidRole) {
		t.Fatalf("bad role: %v", err)
	}
	if _, _, err := GenerateToken("", "ops", "DRIVER", time.Hour); err == nil {
		t.Fatal("empty secret accepted")
	}
}

func TestPrintUsageListsModes(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	for _, mode := range []string{ModeAgent, ModeWake, ModeWatchdog, ModeStatus, ModeToken, ModeJournal} {
		if !strings.Contains(buf.String(), mode) {
			t.Fatalf("usage misses %q", mode)
		}
	}
}

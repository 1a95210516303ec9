package buildsys

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lunix-engine/setup/pkg/deps"
)

func TestDepLoggerAddsField(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := WithLogger(context.Background(), &logger)

	depCtx, depLog := depLogger(ctx, deps.New("glfw").Spec())
	depLog.Info().Msg("configuring")
	log(depCtx).Info().Msg("installing")
	log(ctx).Info().Msg("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 events, got %q", buf.String())
	}
	for _, line := range lines[:2] {
		if !strings.Contains(line, `"dep":"glfw"`) {
			t.Errorf("dep field missing: %s", line)
		}
	}
	if strings.Contains(lines[2], `"dep"`) {
		t.Errorf("parent logger must not carry the dep field: %s", lines[2])
	}
}

func TestLogWithoutLogger(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	log(context.Background())
}

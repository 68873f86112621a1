package command

import (
	"context"
	"strings"
	"testing"

	"github.com/entl/botdeck/internal/device"
)

func acquire(t *testing.T) device.Handle {
	t.Helper()
	h, err := device.NewSimDriver().Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	t.Cleanup(func() { h.Release() })
	return h
}

func TestEvaluateDispatches(t *testing.T) {
	r := Default()
	h := acquire(t)

	tests := []struct {
		text string
		want string
	}{
		{"robot.say_text('hello')", `said "hello"`},
		{"robot.play_animation('anim_pounce_success_02')", "played anim_pounce_success_02"},
		{"robot.set_head_angle(10)", "head at 10.0°"},
		{"robot.set_lift_height(0.5)", "lift at 0.50"},
		{"robot.drive_wheels(75, 75)", "wheels 75/75 mm/s"},
	}
	for _, tt := range tests {
		got, err := r.Evaluate(context.Background(), h, tt.text)
		if err != nil {
			t.Errorf("Evaluate(%q) failed: %v", tt.text, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Evaluate(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestEvaluateAliases(t *testing.T) {
	r := Default()
	h := acquire(t)

	got, err := r.Evaluate(context.Background(), h, "robot.anim.play_animation('x')")
	if err != nil {
		t.Fatalf("aliased operation failed: %v", err)
	}
	if got != "played x" {
		t.Errorf("rendering = %q", got)
	}
}

func TestEvaluateIsCaseInsensitive(t *testing.T) {
	r := Default()
	h := acquire(t)

	if _, err := r.Evaluate(context.Background(), h, "Robot.Say_Text('hi')"); err != nil {
		t.Errorf("case variation should resolve: %v", err)
	}
}

func TestEvaluateRejectsUnknowns(t *testing.T) {
	r := Default()
	h := acquire(t)

	if _, err := r.Evaluate(context.Background(), h, "toaster.say_text('hi')"); err == nil {
		t.Error("unknown receiver should fail")
	} else if !strings.Contains(err.Error(), "unknown receiver") {
		t.Errorf("unexpected error: %v", err)
	}

	if _, err := r.Evaluate(context.Background(), h, "robot.self_destruct()"); err == nil {
		t.Error("unknown operation should fail")
	} else if !strings.Contains(err.Error(), "unknown operation") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEvaluateArgumentValidation(t *testing.T) {
	r := Default()
	h := acquire(t)

	tests := []string{
		"robot.say_text()",              // missing arg
		"robot.say_text(42)",            // wrong type
		"robot.battery('x')",            // extra arg
		"robot.drive_wheels(75)",        // missing second arg
		"robot.set_head_angle('steep')", // wrong type
	}
	for _, text := range tests {
		if _, err := r.Evaluate(context.Background(), h, text); err == nil {
			t.Errorf("Evaluate(%q) should have failed", text)
		}
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	handler := func(ctx context.Context, h device.Handle, args []Arg) (string, error) { return "", nil }

	if err := r.Register("ping", handler); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := r.Register("PING", handler); err == nil {
		t.Error("duplicate registration (case-insensitive) should fail")
	}
	if err := r.Register("", handler); err == nil {
		t.Error("empty operation name should fail")
	}
	if err := r.Register("pong", nil); err == nil {
		t.Error("nil handler should fail")
	}
}

func TestAliasRequiresTarget(t *testing.T) {
	r := NewRegistry()
	if err := r.Alias("a", "missing"); err == nil {
		t.Error("alias to an unregistered target should fail")
	}
}

func TestOperationsSorted(t *testing.T) {
	ops := Default().Operations()
	if len(ops) == 0 {
		t.Fatal("no operations registered")
	}
	for i := 1; i < len(ops); i++ {
		if ops[i-1] >= ops[i] {
			t.Fatalf("operations not sorted: %v", ops)
		}
	}
}

package command

import (
	"reflect"
	"testing"
)

func TestParseValid(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Invocation
	}{
		{
			name: "single string arg",
			text: "robot.say_text('hello world')",
			want: Invocation{Receiver: "robot", Op: "say_text", Args: []Arg{"hello world"}},
		},
		{
			name: "double quoted string",
			text: `robot.play_animation("anim_pounce_success_02")`,
			want: Invocation{Receiver: "robot", Op: "play_animation", Args: []Arg{"anim_pounce_success_02"}},
		},
		{
			name: "no args",
			text: "robot.battery()",
			want: Invocation{Receiver: "robot", Op: "battery"},
		},
		{
			name: "two numbers",
			text: "robot.drive_wheels(75, -75)",
			want: Invocation{Receiver: "robot", Op: "drive_wheels", Args: []Arg{75.0, -75.0}},
		},
		{
			name: "dotted operation",
			text: "robot.anim.play_animation('x')",
			want: Invocation{Receiver: "robot", Op: "anim.play_animation", Args: []Arg{"x"}},
		},
		{
			name: "float and bool",
			text: "robot.set_head_angle(22.5)",
			want: Invocation{Receiver: "robot", Op: "set_head_angle", Args: []Arg{22.5}},
		},
		{
			name: "bool arg",
			text: "robot.say_text('hi', true)",
			want: Invocation{Receiver: "robot", Op: "say_text", Args: []Arg{"hi", true}},
		},
		{
			name: "signed exponents",
			text: "robot.drive_wheels(1e-3, 2E+2)",
			want: Invocation{Receiver: "robot", Op: "drive_wheels", Args: []Arg{1e-3, 2e+2}},
		},
		{
			name: "surrounding whitespace",
			text: "  robot.battery( )  ",
			want: Invocation{Receiver: "robot", Op: "battery"},
		},
		{
			name: "escaped quote",
			text: `robot.say_text('it\'s me')`,
			want: Invocation{Receiver: "robot", Op: "say_text", Args: []Arg{"it's me"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.text, err)
			}
			if inv.Receiver != tt.want.Receiver || inv.Op != tt.want.Op {
				t.Errorf("got %s.%s, want %s.%s", inv.Receiver, inv.Op, tt.want.Receiver, tt.want.Op)
			}
			if !reflect.DeepEqual(inv.Args, tt.want.Args) {
				t.Errorf("args = %#v, want %#v", inv.Args, tt.want.Args)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"bare identifier", "robot"},
		{"no parens", "robot.battery"},
		{"missing close paren", "robot.battery("},
		{"unterminated string", "robot.say_text('oops)"},
		{"trailing input", "robot.battery() extra"},
		{"bad argument", "robot.say_text(hello)"},
		{"statement not call", "import os"},
		{"dangling comma", "robot.drive_wheels(1,)"},
		{"bare exponent", "robot.set_lift_height(1e)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.text); err == nil {
				t.Errorf("Parse(%q) should have failed", tt.text)
			}
		})
	}
}

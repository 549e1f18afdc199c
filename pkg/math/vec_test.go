package math

import "testing"

func TestVec3MinAxis(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want int
	}{
		{"x smallest", Vec3{0.1, 1, 2}, 0},
		{"y smallest", Vec3{1, 0.1, 2}, 1},
		{"z smallest", Vec3{1, 2, 0.1}, 2},
		{"tie prefers lower index", Vec3{0.5, 0.5, 0.5}, 0},
		{"y and z tie", Vec3{1, 0.2, 0.2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.MinAxis(); got != tt.want {
				t.Errorf("MinAxis(%v) = %d, want %d", tt.v, got, tt.want)
			}
		})
	}
}

func TestVec3SwapAxes(t *testing.T) {
	v := Vec3{1, 2, 3}
	if got := v.SwapAxes(0, 2); got != (Vec3{3, 2, 1}) {
		t.Errorf("SwapAxes(0,2) = %v", got)
	}
	if got := v.SwapAxes(1, 2); got != (Vec3{1, 3, 2}) {
		t.Errorf("SwapAxes(1,2) = %v", got)
	}
	if v != (Vec3{1, 2, 3}) {
		t.Error("SwapAxes must not modify the receiver")
	}
}

func TestVec3Map(t *testing.T) {
	got := Vec3{1, 2, 3}.Map(func(f float32) float32 { return f * 2 })
	if got != (Vec3{2, 4, 6}) {
		t.Errorf("Map = %v", got)
	}
}

func TestVec2Scale(t *testing.T) {
	got := Vec2{1, 2}.Add(Vec2{1, 1}).Scale(0.5)
	if got != (Vec2{1, 1.5}) {
		t.Errorf("got %v", got)
	}
}

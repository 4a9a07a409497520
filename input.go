package main

// InputFrame is one actor's intent for a single tick: a movement
// vector plus the dash flag. AI-sourced and human-sourced frames are
// identical; both pass through Sanitize before integration.
type InputFrame struct {
	Tick  uint64  `msgpack:"t" json:"t"`
	Actor int     `msgpack:"a" json:"a"`
	MoveX float64 `msgpack:"x" json:"x"`
	MoveY float64 `msgpack:"y" json:"y"`
	Dash  bool    `msgpack:"d" json:"d,omitempty"`
}

// Sanitize clamps the movement vector to the unit disc and zeroes
// non-finite components. Applied to every frame regardless of source,
// so the AI cannot produce inputs a human controller could not.
func (f InputFrame) Sanitize() InputFrame {
	if !isFinite(f.MoveX, f.MoveY) {
		f.MoveX = 0
		f.MoveY = 0
	}
	if m2 := f.MoveX*f.MoveX + f.MoveY*f.MoveY; m2 > 1 {
		nx, ny := Normalize(f.MoveX, f.MoveY)
		f.MoveX = nx
		f.MoveY = ny
	}
	return f
}

// Moving reports whether the frame carries a direction
func (f InputFrame) Moving() bool {
	return f.MoveX != 0 || f.MoveY != 0
}

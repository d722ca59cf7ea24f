package mask

// StrokeState 笔画状态机：Idle ⇄ Stroking
type StrokeState int

const (
	StateIdle StrokeState = iota
	StateStroking
)

func (s StrokeState) String() string {
	if s == StateStroking {
		return "stroking"
	}
	return "idle"
}

// Segment 一段需要擦除的线段，Radius 已经是画布像素
type Segment struct {
	From   Point
	To     Point
	Radius float64
}

// strokeSession 记录当前笔画。只有 Stroking 状态下 extend 才会产生线段，
// 没有按下就移动天然是空操作。
type strokeSession struct {
	state       StrokeState
	brushRadius float64
	last        Point
}

// begin 按下：开始一条新路径，已有的路径直接丢弃
func (s *strokeSession) begin(m Mapping) {
	s.state = StateStroking
	s.last = m.Point
}

// extend 移动：返回从上一个点到当前点的线段
func (s *strokeSession) extend(m Mapping) (Segment, bool) {
	if s.state != StateStroking {
		return Segment{}, false
	}
	seg := Segment{
		From:   s.last,
		To:     m.Point,
		Radius: s.brushRadius * m.Scale,
	}
	s.last = m.Point
	return seg, true
}

// end 抬起或离开：回到 Idle，返回之前是否在画
func (s *strokeSession) end() bool {
	active := s.state == StateStroking
	s.state = StateIdle
	s.last = Point{}
	return active
}

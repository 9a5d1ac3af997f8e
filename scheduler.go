package rvc

// MaxPFrames is the length of a group of supports (spec §4.5): after an
// I-frame, MaxPFrames-1 supports are coded as P and the next one as I again,
// so no run of consecutive P-frames reaches MaxPFrames.
const MaxPFrames = 10

// ScheduledFrame names one coded frame: its position in display order, the
// frame type to code it as, and (for P/B) the display indices of the
// reference frame(s) it predicts from.
type ScheduledFrame struct {
	DisplayIndex   int
	Type           FrameType
	PrevSupport    int // display index; meaningful for P and B
	NextSupport    int // display index; meaningful for B only
	HasNextSupport bool
}

// Schedule walks n frames in display order and returns them in coded
// order, per spec §4.5: I first, then alternating P/I "supports" three
// frames apart with up to two B-frames filling each gap.
func Schedule(n int) []ScheduledFrame {
	if n <= 0 {
		return nil
	}
	last := n - 1
	out := []ScheduledFrame{{DisplayIndex: 0, Type: FrameI}}
	if last == 0 {
		return out
	}

	prevSupport := 0
	pRun := 0
	for {
		nextSupport := prevSupport + 3
		if nextSupport > last {
			nextSupport = last
		}
		if nextSupport == prevSupport {
			break
		}

		var t FrameType
		if pRun < MaxPFrames-1 {
			t = FrameP
			pRun++
		} else {
			t = FrameI
			pRun = 0
		}
		out = append(out, ScheduledFrame{
			DisplayIndex: nextSupport,
			Type:         t,
			PrevSupport:  prevSupport,
		})

		if prevSupport+1 < nextSupport {
			out = append(out, ScheduledFrame{
				DisplayIndex:   prevSupport + 1,
				Type:           FrameB,
				PrevSupport:    prevSupport,
				NextSupport:    nextSupport,
				HasNextSupport: true,
			})
		}
		if prevSupport+2 < nextSupport {
			out = append(out, ScheduledFrame{
				DisplayIndex:   prevSupport + 2,
				Type:           FrameB,
				PrevSupport:    prevSupport,
				NextSupport:    nextSupport,
				HasNextSupport: true,
			})
		}

		prevSupport = nextSupport
	}
	return out
}

package engine

const (
	sequenceMin = 0x01
	sequenceMax = 0xff

	//DefaultSequenceTolerance is the window at both ends of the sequence range in which a
	//lower sequence number is treated as rollover and not as an old packet
	DefaultSequenceTolerance = 30
)

//SequenceTracker drops stale or duplicated frames by inspecting the Art-Net sequence number.
//A sequence of 0 disables the check for that frame. The zero value is ready to use with a
//tolerance of 0, use NewSequenceTracker for anything else.
type SequenceTracker struct {
	previous  uint8
	tolerance uint8
}

//NewSequenceTracker creates a tracker that has not seen any frame yet
func NewSequenceTracker(tolerance uint8) SequenceTracker {
	return SequenceTracker{tolerance: tolerance}
}

//Check returns true if the frame should be processed and stores the sequence in that case.
//Rejected sequences do not change the tracker.
func (s *SequenceTracker) Check(sequence uint8) bool {
	if !checkSequ(s.previous, sequence, s.tolerance) {
		return false
	}
	s.previous = sequence
	return true
}

//Previous returns the last accepted sequence number
func (s *SequenceTracker) Previous() uint8 {
	return s.previous
}

func checkSequ(old, new, tolerance uint8) bool {
	if new == 0 || new > old {
		return true
	}
	//new <= old: only allowed as a rollover from the top of the range to the bottom
	return int(new) <= sequenceMin+int(tolerance) && int(old) >= sequenceMax-int(tolerance)
}

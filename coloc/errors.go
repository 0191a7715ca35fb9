package coloc

import (
	"fmt"
)

// MalformedInputError is returned when a spot table misses a required column
// or carries a value that can not be parsed into its type.
type MalformedInputError struct {
	Path   string
	Line   int
	Column string
	Reason string
}

func (e *MalformedInputError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("malformed input %s: line %d, column %s: %s", e.Path, e.Line, e.Column, e.Reason)
	case e.Column != "":
		return fmt.Sprintf("malformed input %s: column %s: %s", e.Path, e.Column, e.Reason)
	default:
		return fmt.Sprintf("malformed input %s: %s", e.Path, e.Reason)
	}
}

// EmptyChannelError is returned when a channel has no tracks but a statistic
// needs its track count as a denominator.
type EmptyChannelError struct {
	Channel   string
	Statistic string
}

func (e *EmptyChannelError) Error() string {
	return fmt.Sprintf("channel %s has no tracks, can't compute %s", e.Channel, e.Statistic)
}

// OrphanTrackWarning reports a colocalization whose anchor track has no spots
// carrying it. Such a colocalization is classified as neither recruitment nor extraction.
type OrphanTrackWarning struct {
	ID ColocID
}

func (w OrphanTrackWarning) String() string {
	return fmt.Sprintf("colocalization %s: anchor track %s has no matched spots left", w.ID, w.ID.Anchor)
}

// Package edit computes the minimal changed byte range between two
// revisions of a source text.
package edit

// Edit describes a half-open byte range [StartOffset, OldEndOffset) in
// the old text that was replaced by [StartOffset, NewEndOffset) in the
// new text.
type Edit struct {
	StartOffset  int
	OldEndOffset int
	NewEndOffset int
}

// Empty reports whether the edit changes nothing.
func (e Edit) Empty() bool {
	return e.StartOffset == e.OldEndOffset && e.StartOffset == e.NewEndOffset
}

// Delta returns the net change in document length in bytes.
func (e Edit) Delta() int {
	return e.NewEndOffset - e.OldEndOffset
}

// Detect finds the single contiguous region where oldText and newText
// differ by scanning the common prefix forward and the common suffix
// backward. The suffix scan is clamped so prefix and suffix never
// overlap, which matters for insertions and deletions at a
// repeated-character boundary ("aa" -> "aaa").
func Detect(oldText, newText string) Edit {
	min := len(oldText)
	if len(newText) < min {
		min = len(newText)
	}

	prefix := 0
	for prefix < min && oldText[prefix] == newText[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < min-prefix &&
		oldText[len(oldText)-1-suffix] == newText[len(newText)-1-suffix] {
		suffix++
	}

	return Edit{
		StartOffset:  prefix,
		OldEndOffset: len(oldText) - suffix,
		NewEndOffset: len(newText) - suffix,
	}
}

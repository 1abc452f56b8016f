package clone

// ComputePosition places the copyIndex-th copy one offset further out than
// the previous one. Copy 0 sits exactly one offset away from the anchor.
func ComputePosition(anchor, offset Vec3, copyIndex int) Vec3 {
	return anchor.Add(offset).Add(offset.Scale(float64(copyIndex)))
}

// Layout returns the positions of copies 0..copies-1 for one anchor.
func Layout(anchor, offset Vec3, copies int) []Vec3 {
	if copies <= 0 {
		return nil
	}
	out := make([]Vec3, copies)
	for i := range out {
		out[i] = ComputePosition(anchor, offset, i)
	}
	return out
}

package main

// noopReflog implements refs.Reflog with a no-op Rename. The real reflog is
// out of this subsystem's scope (§1); refctl has no reflog storage of its
// own, so it simply declines to participate in step 7 of rename.
type noopReflog struct{}

func (noopReflog) Rename(string, string) error { return nil }

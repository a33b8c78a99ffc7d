// Package registry is the single in-memory store of active timers and
// alarms.
//
// A Registry is created once per process and shared by every session, the
// scheduler and the tools. One mutex guards both collections; callers only
// ever receive clones, so the firing handles stay inside the store.
package registry

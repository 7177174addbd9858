// Package sessionstore tracks editor sessions in memory: the newest canvas
// version each session has submitted and the result compiled for it.
//
// The editor recompiles on every edit, so compilations of one session can
// overlap and finish out of order. The store only accepts a result whose
// version is still the newest one begun for its session; results of
// superseded versions are discarded. It uses sync.Map because sessions are
// independent keys written from many connection goroutines.
package sessionstore

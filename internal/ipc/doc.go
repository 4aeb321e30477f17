// Package ipc defines the closed message protocol between the orchestrator
// and its worker processes.
//
// The protocol is a tagged union: every message is an envelope carrying a
// type tag and exactly one payload shape determined by that tag. Payloads are
// validated at the channel boundary on decode, so a malformed message is
// rejected before any worker or pool state can change.
//
// Messages travel as newline-delimited JSON over the worker's stdin and
// stdout pipes. The orchestrator sends INIT, SET_COOKIES, DOWNLOAD and
// SHUTDOWN; workers answer with READY and RESULT.
package ipc

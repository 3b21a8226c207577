// Package session implements the stream session state machine.
//
// A Manager is either idle or streaming. Streaming means it holds exactly
// one encoder Handle obtained from its Launcher. Start and Stop are
// serialized by a single lock held across the launch and terminate calls,
// so concurrent callers observe one winner and typed rejections for the
// rest:
//
//	Idle      --Start ok-->      Streaming
//	Idle      --Start fails-->   Idle       (LAUNCH_FAILED)
//	Streaming --Start-->         Streaming  (ALREADY_ACTIVE)
//	Streaming --Stop ok-->       Idle
//	Streaming --Stop fails-->    Streaming  (TERMINATION_FAILED)
//	Idle      --Stop-->          Idle       (NOT_ACTIVE)
//
// Operations are not cancellable once they hold the lock.
package session

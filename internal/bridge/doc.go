// Package bridge is the call surface between IR clients and a construction
// engine.
//
// The engine is anything that implements Engine: a name-keyed table of
// functions taking and returning boxed runtime.Values. Bridge owns the fixed
// table of entry points (EntryPoints), checks every call against it before
// dispatch, keeps object arguments alive while the engine runs, and downcasts
// the engine's result to the node type the entry point promises.
//
// Failures come back in three shapes:
//
//   - *ArgumentError: the call never reached the engine.
//   - *EngineError: the engine rejected the call; its message is kept verbatim.
//   - *runtime.TypeMismatchError: the engine returned the wrong node type.
//
// Bridge holds no state between calls. A Recorder, when configured, observes
// each finished call.
package bridge

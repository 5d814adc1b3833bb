// Package connectivity supervises the node's network link.
//
// The Supervisor is stepped once per scheduler tick. Waiting for a connect
// result is a state (Connecting) with a deadline rather than a blocking
// loop, so the scheduler keeps serving requests and sampling while the
// radio associates. Failed attempts are counted against a fixed budget;
// when it runs out the supervisor rests in CoolDown before trying again.
package connectivity

// Package renew drives a hosting panel's "renew" and "start" controls for a list of
// servers and decides, from independent signals, whether each action took effect.
//
// The flow per run is: establish a session (cookie or login form), then for every
// target in order navigate, wait out bot challenges, gate on page readiness, read the
// expiry marker, locate the control through an ordered matcher list, click it, and
// verify. Anything that goes wrong inside a target becomes an Outcome on that target;
// only authentication failure aborts the run.
package renew

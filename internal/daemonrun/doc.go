// Package daemonrun assembles the goggles job graph and hosts the daemon
// process loop used by "goggles daemon".
package daemonrun

// Package deps checks that the external binaries goggles shells out to are
// installed.
package deps

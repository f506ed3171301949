// Package selfupdate replaces the running lat executable with the latest
// published build.
//
// The replacement is not atomic: the current executable is removed before the
// new one is renamed into place. A failure between those two steps leaves no
// executable at its path; it is reported as a BrokenInstallError
// carrying the command that finishes the job by hand.
package selfupdate

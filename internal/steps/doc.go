// Package steps maintains the step hierarchy of a running test case.
//
// A test is written as a flat sequence of Step calls. The Stepper classifies
// each name by its first word and decides, from the live state of the
// reporting backend, whether the new step nests under the current one,
// replaces it, or replaces the whole top-level chain. The resulting tree is
// what a report viewer shows.
//
// Four kinds exist, keyed by the first word of the step name in the
// configured Vocabulary:
//
//	last           close every open step if the current one has only passed children
//	step           finish the open top-level chain and start a new top-level step
//	preparation    nest under whatever is open
//	check          nest under whatever is open
//	anything else  replace an open sub-step, or nest under an open top-level step
//
// The Stepper holds no tree state of its own. Every decision reads the
// backend's cursor again, so steps closed or opened by other code are seen.
// A Stepper is bound to one backend and therefore to one test execution;
// parallel tests use one Stepper each.
package steps

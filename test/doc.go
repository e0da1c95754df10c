// Package test contains helper functions to remove some common boilerplate in
// test functions. the Expect functions print a descriptive error through the
// testing.T argument on failure; they do not stop the test.
package test
